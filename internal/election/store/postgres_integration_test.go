//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civitas/internal/election/models"
	"civitas/internal/election/store"
	"civitas/internal/platform/postgres"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/testutil/containers"
)

type PostgresElectionSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres

	election *models.Election
}

func TestPostgresElectionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresElectionSuite))
}

func (s *PostgresElectionSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.CreateSchema(s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresElectionSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *PostgresElectionSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))

	now := time.Now().UTC().Truncate(time.Microsecond)
	e, err := models.NewElection(models.Definition{
		Name:    "Registry Test Election",
		StartAt: now.Add(time.Hour),
		EndAt:   now.Add(2 * time.Hour),
	}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateElection(ctx, e))
	s.election = e
}

func (s *PostgresElectionSuite) newCandidate() *models.Candidate {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c, err := models.NewCandidate(s.election.ID, models.CandidateInput{FullName: "Candidate A"}, now)
	s.Require().NoError(err)
	return c
}

func (s *PostgresElectionSuite) TestCreateCandidate() {
	ctx := context.Background()

	c := s.newCandidate()
	s.Require().NoError(s.store.CreateCandidate(ctx, c))

	found, err := s.store.FindCandidate(ctx, c.ID)
	s.NoError(err)
	s.Equal(c.ElectionID, found.ElectionID)
	s.Equal(c.FullName, found.FullName)
}

func (s *PostgresElectionSuite) TestCreateCandidateUnknownElection() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	c, err := models.NewCandidate(id.NewElectionID(), models.CandidateInput{FullName: "Orphan"}, now)
	s.Require().NoError(err)

	err = s.store.CreateCandidate(ctx, c)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresElectionSuite) TestCreateCandidateDuplicateID() {
	ctx := context.Background()

	c := s.newCandidate()
	s.Require().NoError(s.store.CreateCandidate(ctx, c))

	err := s.store.CreateCandidate(ctx, c)
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *PostgresElectionSuite) TestCancelElectionPersists() {
	ctx := context.Background()
	cancelledAt := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.store.ExecuteElection(ctx, s.election.ID,
		func(e *models.Election) error { return nil },
		func(e *models.Election) { e.CancelledAt = &cancelledAt })
	s.Require().NoError(err)

	found, err := s.store.FindElection(ctx, s.election.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.CancelledAt)
	s.True(found.CancelledAt.Equal(cancelledAt))
}
