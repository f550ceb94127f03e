package models

import (
	"strings"
	"time"

	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
)

// VerificationStatus is the closed set of profile verification states.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func (v VerificationStatus) Valid() bool {
	switch v {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// ParseVerificationStatus validates a raw status string at a trust boundary.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	v := VerificationStatus(s)
	if !v.Valid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown verification status %q", s)
	}
	return v, nil
}

// Profile is a voter's registered identity.
//
// Invariants:
//   - One profile per user (enforced by the store).
//   - Identity fields (name, date of birth, national id) are set at
//     registration and never mutated by the owning user afterwards.
//   - Only officials transition VerificationStatus.
//   - A vote may only be cast by a profile whose status is verified.
type Profile struct {
	ID                 id.ProfileID       `json:"id"`
	UserID             id.UserID          `json:"user_id"`
	FullName           string             `json:"full_name"`
	DateOfBirth        time.Time          `json:"date_of_birth"`
	NationalID         string             `json:"national_id,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	Constituency       string             `json:"constituency,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// IsVerified reports whether the profile may cast votes.
func (p *Profile) IsVerified() bool {
	return p.VerificationStatus == VerificationVerified
}

// CanTransitionTo checks a verification status change. Re-stating the current
// status is rejected so audit trails only record real transitions.
func (p *Profile) CanTransitionTo(status VerificationStatus) error {
	if !status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown verification status %q", status)
	}
	if p.VerificationStatus == status {
		return dErrors.Newf(dErrors.CodeInvalidState, "profile is already %s", status)
	}
	return nil
}

// ApplyTransition records the status change. Call CanTransitionTo first.
func (p *Profile) ApplyTransition(status VerificationStatus, now time.Time) {
	p.VerificationStatus = status
	p.UpdatedAt = now
}

// RegisterInput carries the registration submission.
type RegisterInput struct {
	UserID       id.UserID
	FullName     string
	DateOfBirth  time.Time
	NationalID   string
	Phone        string
	Constituency string
}

// NewProfile builds a pending profile from a registration submission.
func NewProfile(in RegisterInput, now time.Time) (*Profile, error) {
	name := strings.TrimSpace(in.FullName)
	if in.UserID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if in.DateOfBirth.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "date of birth is required")
	}
	return &Profile{
		ID:                 id.NewProfileID(),
		UserID:             in.UserID,
		FullName:           name,
		DateOfBirth:        in.DateOfBirth,
		NationalID:         strings.TrimSpace(in.NationalID),
		Phone:              strings.TrimSpace(in.Phone),
		Constituency:       strings.TrimSpace(in.Constituency),
		VerificationStatus: VerificationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}
