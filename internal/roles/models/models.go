package models

import (
	"time"

	dErrors "civitas/pkg/domain-errors"

	"github.com/google/uuid"

	id "civitas/pkg/domain"
)

// Role is the closed set of application roles. A user may hold several.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleElectionOfficial Role = "election_official"
	RoleVoter            Role = "voter"
)

// Valid reports whether r is a member of the closed role set. Any value
// outside the set is a validation error at the boundary.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleElectionOfficial, RoleVoter:
		return true
	}
	return false
}

// ParseRole validates a raw role string at a trust boundary.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", s)
	}
	return r, nil
}

// Assignment is a (user, role) pair. Immutable once created; removed only by
// deletion.
type Assignment struct {
	ID        uuid.UUID `json:"id"`
	UserID    id.UserID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAssignment builds an assignment, enforcing the closed role set.
func NewAssignment(userID id.UserID, role Role, now time.Time) (*Assignment, error) {
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}
	return &Assignment{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
	}, nil
}
