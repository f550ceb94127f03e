package store

import (
	"context"
	"sync"

	"civitas/internal/ledger/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

type pairKey struct {
	election id.ElectionID
	voter    id.UserID
}

// InMemory keeps the vote ledger and voter log in mutex-guarded maps. The
// append of a voter-log entry and its vote is a single critical section, so
// readers never observe a half-written pair.
type InMemory struct {
	mu       sync.RWMutex
	voterLog map[pairKey]*models.VoterLogEntry
	votes    map[pairKey]*models.Vote
}

func NewInMemory() *InMemory {
	return &InMemory{
		voterLog: make(map[pairKey]*models.VoterLogEntry),
		votes:    make(map[pairKey]*models.Vote),
	}
}

// AppendVote atomically inserts the voter-log entry and the vote. A second
// insert for the same (election, voter) pair conflicts and writes nothing.
func (s *InMemory) AppendVote(ctx context.Context, entry *models.VoterLogEntry, vote *models.Vote) error {
	key := pairKey{election: entry.ElectionID, voter: entry.VoterID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.voterLog[key]; exists {
		return sentinel.ErrConflict
	}
	entryCp := *entry
	voteCp := *vote
	s.voterLog[key] = &entryCp
	s.votes[key] = &voteCp
	return nil
}

// HasVoted reports whether a voter-log entry exists for the pair.
func (s *InMemory) HasVoted(ctx context.Context, electionID id.ElectionID, voterID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.voterLog[pairKey{election: electionID, voter: voterID}]
	return ok, nil
}

// FindVoteByVoter returns the voter's own vote for receipt verification.
func (s *InMemory) FindVoteByVoter(ctx context.Context, electionID id.ElectionID, voterID id.UserID) (*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.votes[pairKey{election: electionID, voter: voterID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// CountByCandidate groups the election's votes by candidate. The snapshot is
// taken under the read lock, so a concurrent cast is either fully included
// or fully absent.
func (s *InMemory) CountByCandidate(ctx context.Context, electionID id.ElectionID) (map[id.CandidateID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[id.CandidateID]int)
	for _, v := range s.votes {
		if v.ElectionID == electionID {
			counts[v.CandidateID]++
		}
	}
	return counts, nil
}
