// Package tally derives per-candidate vote counts from the ledger. Output
// types structurally cannot carry a voter id.
package tally

import (
	"time"

	id "civitas/pkg/domain"
)

// CandidateResult is one row of an election's results, mirroring the shape
// the results dashboard renders: candidate, party, count. Nothing else.
type CandidateResult struct {
	CandidateID   id.CandidateID `json:"candidate_id"`
	CandidateName string         `json:"candidate_name"`
	PartyName     string         `json:"party_name,omitempty"`
	VoteCount     int            `json:"vote_count"`
}

// Result is the tally of a single election at a point in time.
type Result struct {
	ElectionID   id.ElectionID     `json:"election_id"`
	ElectionName string            `json:"election_name"`
	Status       string            `json:"status"`
	TotalVotes   int               `json:"total_votes"`
	Candidates   []CandidateResult `json:"candidates"`
	ComputedAt   time.Time         `json:"computed_at"`
}
