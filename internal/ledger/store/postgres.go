package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civitas/internal/ledger/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

const pqUniqueViolation = "23505"

// Postgres persists the vote ledger. AppendVote writes the voter-log entry
// and the vote in one transaction; the UNIQUE (election_id, voter_id) index
// on voter_log is the database-level double-vote guard, so the second of two
// racing writers fails with a conflict and neither row of its pair survives.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) AppendVote(ctx context.Context, entry *models.VoterLogEntry, vote *models.Vote) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO voter_log (id, election_id, voter_id, voted_at)
		VALUES ($1, $2, $3, $4)
	`, entry.ID, uuid.UUID(entry.ElectionID), uuid.UUID(entry.VoterID), entry.VotedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert voter log entry: %w", err)
	}

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO votes (id, election_id, candidate_id, voter_id, vote_hash, nonce, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(vote.ID), uuid.UUID(vote.ElectionID), uuid.UUID(vote.CandidateID),
		uuid.UUID(vote.VoterID), vote.VoteHash, vote.Nonce, vote.CastAt)
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

func (s *Postgres) HasVoted(ctx context.Context, electionID id.ElectionID, voterID id.UserID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM voter_log WHERE election_id = $1 AND voter_id = $2
		)
	`, uuid.UUID(electionID), uuid.UUID(voterID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query voter log: %w", err)
	}
	return exists, nil
}

func (s *Postgres) FindVoteByVoter(ctx context.Context, electionID id.ElectionID, voterID id.UserID) (*models.Vote, error) {
	var (
		v           models.Vote
		voteID      uuid.UUID
		eID         uuid.UUID
		candidateID uuid.UUID
		voterUUID   uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, election_id, candidate_id, voter_id, vote_hash, nonce, cast_at
		FROM votes WHERE election_id = $1 AND voter_id = $2
	`, uuid.UUID(electionID), uuid.UUID(voterID)).
		Scan(&voteID, &eID, &candidateID, &voterUUID, &v.VoteHash, &v.Nonce, &v.CastAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan vote: %w", err)
	}
	v.ID = id.VoteID(voteID)
	v.ElectionID = id.ElectionID(eID)
	v.CandidateID = id.CandidateID(candidateID)
	v.VoterID = id.UserID(voterUUID)
	return &v, nil
}

// CountByCandidate groups the election's votes by candidate. Runs as a
// single statement, so it sees a consistent snapshot of the votes table.
func (s *Postgres) CountByCandidate(ctx context.Context, electionID id.ElectionID) (map[id.CandidateID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT candidate_id, COUNT(*)
		FROM votes
		WHERE election_id = $1
		GROUP BY candidate_id
	`, uuid.UUID(electionID))
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[id.CandidateID]int)
	for rows.Next() {
		var (
			candidateID uuid.UUID
			n           int
		)
		if err := rows.Scan(&candidateID, &n); err != nil {
			return nil, fmt.Errorf("scan vote count: %w", err)
		}
		counts[id.CandidateID(candidateID)] = n
	}
	return counts, rows.Err()
}
