package models

import (
	"time"

	"github.com/google/uuid"

	id "civitas/pkg/domain"
)

// Vote is an append-only record of a cast ballot. The voter id exists only
// so the owning voter's receipt can be recomputed; no read path exposes it
// next to the candidate choice.
type Vote struct {
	ID          id.VoteID
	ElectionID  id.ElectionID
	CandidateID id.CandidateID
	VoterID     id.UserID
	VoteHash    string
	Nonce       string
	CastAt      time.Time
}

// VoterLogEntry records that a voter has voted in an election. The row is
// identity-linked and choice-free: its existence is the sole authoritative
// fact of "this voter has voted here", and it is what blocks double voting.
// Written exclusively by the ledger in the same transaction as the vote.
type VoterLogEntry struct {
	ID         uuid.UUID
	ElectionID id.ElectionID
	VoterID    id.UserID
	VotedAt    time.Time
}

// Receipt is returned to the voter after a successful cast. It never carries
// the candidate choice in plaintext; the hash is verifiable only by the
// voter against the server's stored content.
type Receipt struct {
	VoteID   id.VoteID `json:"vote_id"`
	VoteHash string    `json:"vote_hash"`
	CastAt   time.Time `json:"cast_at"`
}
