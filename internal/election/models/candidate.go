package models

import (
	"strings"
	"time"

	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
)

// Candidate stands in a single election, optionally for a party. Candidates
// are added while the election is upcoming and are immutable once it starts.
type Candidate struct {
	ID         id.CandidateID `json:"id"`
	ElectionID id.ElectionID  `json:"election_id"`
	PartyID    *id.PartyID    `json:"party_id,omitempty"`
	FullName   string         `json:"full_name"`
	Bio        string         `json:"bio,omitempty"`
	PhotoURL   string         `json:"photo_url,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CandidateInput carries the fields for adding a candidate.
type CandidateInput struct {
	FullName string
	PartyID  *id.PartyID
	Bio      string
	PhotoURL string
}

func NewCandidate(electionID id.ElectionID, in CandidateInput, now time.Time) (*Candidate, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate full name is required")
	}
	if electionID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "election id is required")
	}
	return &Candidate{
		ID:         id.NewCandidateID(),
		ElectionID: electionID,
		PartyID:    in.PartyID,
		FullName:   name,
		Bio:        strings.TrimSpace(in.Bio),
		PhotoURL:   strings.TrimSpace(in.PhotoURL),
		CreatedAt:  now,
	}, nil
}

// Party is reference data with an independent lifecycle.
type Party struct {
	ID           id.PartyID `json:"id"`
	Name         string     `json:"name"`
	Abbreviation string     `json:"abbreviation,omitempty"`
	SymbolURL    string     `json:"symbol_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func NewParty(name, abbreviation, symbolURL string, now time.Time) (*Party, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "party name is required")
	}
	return &Party{
		ID:           id.NewPartyID(),
		Name:         name,
		Abbreviation: strings.TrimSpace(abbreviation),
		SymbolURL:    strings.TrimSpace(symbolURL),
		CreatedAt:    now,
	}, nil
}
