package handler

import (
	"strings"
	"time"

	electionmodels "civitas/internal/election/models"
	identitymodels "civitas/internal/identity/models"
	rolesmodels "civitas/internal/roles/models"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// RegisterRequest is the HTTP request body for POST /identity/register.
type RegisterRequest struct {
	FullName     string `json:"full_name"`
	DateOfBirth  string `json:"date_of_birth"`
	NationalID   string `json:"national_id"`
	Phone        string `json:"phone"`
	Constituency string `json:"constituency"`

	parsedDOB time.Time
}

func (r *RegisterRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if len(r.FullName) > 200 {
		return dErrors.New(dErrors.CodeValidation, "full_name must be at most 200 characters")
	}
	if r.DateOfBirth == "" {
		return dErrors.New(dErrors.CodeValidation, "date_of_birth is required")
	}
	dob, err := time.Parse(dateLayout, r.DateOfBirth)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "date_of_birth must be formatted YYYY-MM-DD")
	}
	r.parsedDOB = dob
	if len(r.NationalID) > 50 {
		return dErrors.New(dErrors.CodeValidation, "national_id must be at most 50 characters")
	}
	return nil
}

// ToInput builds the domain registration input for the authenticated user.
func (r *RegisterRequest) ToInput(userID id.UserID) identitymodels.RegisterInput {
	return identitymodels.RegisterInput{
		UserID:       userID,
		FullName:     r.FullName,
		DateOfBirth:  r.parsedDOB,
		NationalID:   strings.TrimSpace(r.NationalID),
		Phone:        strings.TrimSpace(r.Phone),
		Constituency: strings.TrimSpace(r.Constituency),
	}
}

// SetVerificationRequest is the body for POST /identity/profiles/{profileID}/verification.
type SetVerificationRequest struct {
	Status string `json:"status"`

	parsedStatus identitymodels.VerificationStatus
}

func (r *SetVerificationRequest) Validate() error {
	status, err := identitymodels.ParseVerificationStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

func (r *SetVerificationRequest) ParsedStatus() identitymodels.VerificationStatus {
	return r.parsedStatus
}

// RoleRequest is the body for POST /roles/assign and POST /roles/revoke.
type RoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`

	parsedUserID id.UserID
	parsedRole   rolesmodels.Role
}

func (r *RoleRequest) Validate() error {
	userID, err := id.ParseUserID(strings.TrimSpace(r.UserID))
	if err != nil {
		return err
	}
	role, err := rolesmodels.ParseRole(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}
	r.parsedUserID = userID
	r.parsedRole = role
	return nil
}

func (r *RoleRequest) ParsedUserID() id.UserID      { return r.parsedUserID }
func (r *RoleRequest) ParsedRole() rolesmodels.Role { return r.parsedRole }

// CreateElectionRequest is the body for POST /elections.
type CreateElectionRequest struct {
	Name         string    `json:"name"`
	Constituency string    `json:"constituency"`
	Description  string    `json:"description"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
}

func (r *CreateElectionRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.StartAt.IsZero() || r.EndAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "start_at and end_at are required")
	}
	if !r.EndAt.After(r.StartAt) {
		return dErrors.New(dErrors.CodeValidation, "end_at must be after start_at")
	}
	return nil
}

func (r *CreateElectionRequest) ToDefinition() electionmodels.Definition {
	return electionmodels.Definition{
		Name:         r.Name,
		Constituency: strings.TrimSpace(r.Constituency),
		Description:  strings.TrimSpace(r.Description),
		StartAt:      r.StartAt,
		EndAt:        r.EndAt,
	}
}

// AddCandidateRequest is the body for POST /elections/{electionID}/candidates.
type AddCandidateRequest struct {
	FullName string `json:"full_name"`
	PartyID  string `json:"party_id"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`

	parsedPartyID *id.PartyID
}

func (r *AddCandidateRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if partyID := strings.TrimSpace(r.PartyID); partyID != "" {
		parsed, err := id.ParsePartyID(partyID)
		if err != nil {
			return err
		}
		r.parsedPartyID = &parsed
	}
	return nil
}

func (r *AddCandidateRequest) ToInput() electionmodels.CandidateInput {
	return electionmodels.CandidateInput{
		FullName: r.FullName,
		PartyID:  r.parsedPartyID,
		Bio:      strings.TrimSpace(r.Bio),
		PhotoURL: strings.TrimSpace(r.PhotoURL),
	}
}

// CastVoteRequest is the body for POST /elections/{electionID}/votes.
type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`

	parsedCandidateID id.CandidateID
}

func (r *CastVoteRequest) Validate() error {
	candidateID, err := id.ParseCandidateID(strings.TrimSpace(r.CandidateID))
	if err != nil {
		return err
	}
	r.parsedCandidateID = candidateID
	return nil
}

func (r *CastVoteRequest) ParsedCandidateID() id.CandidateID { return r.parsedCandidateID }

// VerifyReceiptRequest is the body for POST /elections/{electionID}/receipts/verify.
type VerifyReceiptRequest struct {
	VoteHash string `json:"vote_hash"`
}

func (r *VerifyReceiptRequest) Validate() error {
	r.VoteHash = strings.TrimSpace(r.VoteHash)
	if r.VoteHash == "" {
		return dErrors.New(dErrors.CodeValidation, "vote_hash is required")
	}
	return nil
}

// CreatePartyRequest is the body for POST /parties.
type CreatePartyRequest struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	SymbolURL    string `json:"symbol_url"`
}

func (r *CreatePartyRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}
