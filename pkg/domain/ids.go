// Package domain defines the typed identifiers shared across services.
// Distinct ID types make cross-entity assignment a compile error, so a
// candidate ID can never be passed where an election ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "civitas/pkg/domain-errors"
)

type (
	UserID      uuid.UUID
	ProfileID   uuid.UUID
	ElectionID  uuid.UUID
	CandidateID uuid.UUID
	PartyID     uuid.UUID
	VoteID      uuid.UUID
)

// parseUUID enforces the trust boundary invariant: IDs must be valid,
// non-nil UUIDs.
func parseUUID(field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s is required", field)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s must be a valid UUID", field)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s must not be the nil UUID", field)
	}
	return parsed, nil
}

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id ProfileID) String() string   { return uuid.UUID(id).String() }
func (id ElectionID) String() string  { return uuid.UUID(id).String() }
func (id CandidateID) String() string { return uuid.UUID(id).String() }
func (id PartyID) String() string     { return uuid.UUID(id).String() }
func (id VoteID) String() string      { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ProfileID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ElectionID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CandidateID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id PartyID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id VoteID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID           { return UserID(uuid.New()) }
func NewProfileID() ProfileID     { return ProfileID(uuid.New()) }
func NewElectionID() ElectionID   { return ElectionID(uuid.New()) }
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }
func NewPartyID() PartyID         { return PartyID(uuid.New()) }
func NewVoteID() VoteID           { return VoteID(uuid.New()) }

// Text marshalling keeps IDs as canonical UUID strings in JSON and map keys.
// Defined types do not inherit uuid.UUID's methods, so each type declares its
// own pair.

func (id UserID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ProfileID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id ElectionID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id CandidateID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id PartyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id VoteID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ProfileID) UnmarshalText(b []byte) error {
	parsed, err := ParseProfileID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ElectionID) UnmarshalText(b []byte) error {
	parsed, err := ParseElectionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CandidateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCandidateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PartyID) UnmarshalText(b []byte) error {
	parsed, err := ParsePartyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *VoteID) UnmarshalText(b []byte) error {
	parsed, err := ParseVoteID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID("user_id", raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

func ParseProfileID(raw string) (ProfileID, error) {
	parsed, err := parseUUID("profile_id", raw)
	if err != nil {
		return ProfileID{}, err
	}
	return ProfileID(parsed), nil
}

func ParseElectionID(raw string) (ElectionID, error) {
	parsed, err := parseUUID("election_id", raw)
	if err != nil {
		return ElectionID{}, err
	}
	return ElectionID(parsed), nil
}

func ParseCandidateID(raw string) (CandidateID, error) {
	parsed, err := parseUUID("candidate_id", raw)
	if err != nil {
		return CandidateID{}, err
	}
	return CandidateID(parsed), nil
}

func ParsePartyID(raw string) (PartyID, error) {
	parsed, err := parseUUID("party_id", raw)
	if err != nil {
		return PartyID{}, err
	}
	return PartyID(parsed), nil
}

func ParseVoteID(raw string) (VoteID, error) {
	parsed, err := parseUUID("vote_id", raw)
	if err != nil {
		return VoteID{}, err
	}
	return VoteID(parsed), nil
}
