package handler

import (
	"time"

	electionmodels "civitas/internal/election/models"
)

// ElectionResponse is an election plus its derived status at response time.
type ElectionResponse struct {
	*electionmodels.Election
	Status electionmodels.Status `json:"status"`
}

func FromElection(e *electionmodels.Election, now time.Time) ElectionResponse {
	return ElectionResponse{Election: e, Status: e.StatusAt(now)}
}

func FromElections(elections []*electionmodels.Election, now time.Time) []ElectionResponse {
	out := make([]ElectionResponse, 0, len(elections))
	for _, e := range elections {
		out = append(out, FromElection(e, now))
	}
	return out
}

// StatusResponse carries just the derived lifecycle status.
type StatusResponse struct {
	Status electionmodels.Status `json:"status"`
}

// HasVotedResponse answers the idempotency probe after a timed-out cast.
type HasVotedResponse struct {
	HasVoted bool `json:"has_voted"`
}

// VerifyReceiptResponse reports whether a presented receipt hash matches the
// recorded vote.
type VerifyReceiptResponse struct {
	Valid bool `json:"valid"`
}
