//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	electionmodels "civitas/internal/election/models"
	electionstore "civitas/internal/election/store"
	ledgermodels "civitas/internal/ledger/models"
	"civitas/internal/ledger/store"
	"civitas/internal/platform/postgres"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *store.Postgres
	elections *electionstore.Postgres

	election  *electionmodels.Election
	candidate *electionmodels.Candidate
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.CreateSchema(s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
	s.elections = electionstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *PostgresLedgerSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))

	now := time.Now().UTC().Truncate(time.Microsecond)
	e, err := electionmodels.NewElection(electionmodels.Definition{
		Name:    "Ledger Test Election",
		StartAt: now.Add(-time.Hour),
		EndAt:   now.Add(time.Hour),
	}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.elections.CreateElection(ctx, e))
	s.election = e

	c, err := electionmodels.NewCandidate(e.ID, electionmodels.CandidateInput{FullName: "Candidate A"}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.elections.CreateCandidate(ctx, c))
	s.candidate = c
}

func (s *PostgresLedgerSuite) newVote(voterID id.UserID) (*ledgermodels.VoterLogEntry, *ledgermodels.Vote) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	nonce, err := ledgermodels.NewNonce()
	s.Require().NoError(err)

	entry := &ledgermodels.VoterLogEntry{
		ID:         uuid.New(),
		ElectionID: s.election.ID,
		VoterID:    voterID,
		VotedAt:    now,
	}
	vote := &ledgermodels.Vote{
		ID:          id.NewVoteID(),
		ElectionID:  s.election.ID,
		CandidateID: s.candidate.ID,
		VoterID:     voterID,
		VoteHash:    "test-hash-" + nonce,
		Nonce:       nonce,
		CastAt:      now,
	}
	return entry, vote
}

func (s *PostgresLedgerSuite) TestAppendVote() {
	ctx := context.Background()
	voter := id.NewUserID()
	entry, vote := s.newVote(voter)

	s.Require().NoError(s.store.AppendVote(ctx, entry, vote))

	voted, err := s.store.HasVoted(ctx, s.election.ID, voter)
	s.Require().NoError(err)
	s.True(voted)

	found, err := s.store.FindVoteByVoter(ctx, s.election.ID, voter)
	s.Require().NoError(err)
	s.Equal(vote.VoteHash, found.VoteHash)
	s.Equal(vote.Nonce, found.Nonce)
	s.True(found.CastAt.Equal(vote.CastAt))
}

// The UNIQUE(election_id, voter_id) constraint on voter_log is the database
// level double-vote guard. Both the serial and the concurrent path must
// surface it as a conflict, with no partial vote row left behind.
func (s *PostgresLedgerSuite) TestDoubleVoteRejectedByConstraint() {
	ctx := context.Background()
	voter := id.NewUserID()

	entry, vote := s.newVote(voter)
	s.Require().NoError(s.store.AppendVote(ctx, entry, vote))

	again, secondVote := s.newVote(voter)
	err := s.store.AppendVote(ctx, again, secondVote)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	counts, err := s.store.CountByCandidate(ctx, s.election.ID)
	s.Require().NoError(err)
	s.Equal(1, counts[s.candidate.ID])
}

func (s *PostgresLedgerSuite) TestConcurrentDoubleVote() {
	ctx := context.Background()
	voter := id.NewUserID()
	const goroutines = 25

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, vote := s.newVote(voter)
			err := s.store.AppendVote(ctx, entry, vote)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one append should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")

	counts, err := s.store.CountByCandidate(ctx, s.election.ID)
	s.Require().NoError(err)
	s.Equal(1, counts[s.candidate.ID])
}

func (s *PostgresLedgerSuite) TestHasVotedIsScopedToElection() {
	ctx := context.Background()
	voter := id.NewUserID()
	entry, vote := s.newVote(voter)
	s.Require().NoError(s.store.AppendVote(ctx, entry, vote))

	voted, err := s.store.HasVoted(ctx, id.NewElectionID(), voter)
	s.Require().NoError(err)
	s.False(voted)
}

func (s *PostgresLedgerSuite) TestFindVoteByVoterNotFound() {
	_, err := s.store.FindVoteByVoter(context.Background(), s.election.ID, id.NewUserID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresLedgerSuite) TestCountByCandidate() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		entry, vote := s.newVote(id.NewUserID())
		s.Require().NoError(s.store.AppendVote(ctx, entry, vote))
	}

	counts, err := s.store.CountByCandidate(ctx, s.election.ID)
	s.Require().NoError(err)
	s.Equal(3, counts[s.candidate.ID])
}
