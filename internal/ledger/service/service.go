// Package service implements the vote ledger: the per-voter, per-election
// state machine whose only transition is not_voted → voted.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"civitas/internal/audit"
	electionmodels "civitas/internal/election/models"
	"civitas/internal/ledger/models"
	"civitas/internal/platform/metrics"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/requestcontext"
)

// Store is the persistence port for votes and the voter log. AppendVote must
// be atomic: either both rows land or neither does.
type Store interface {
	AppendVote(ctx context.Context, entry *models.VoterLogEntry, vote *models.Vote) error
	HasVoted(ctx context.Context, electionID id.ElectionID, voterID id.UserID) (bool, error)
	FindVoteByVoter(ctx context.Context, electionID id.ElectionID, voterID id.UserID) (*models.Vote, error)
	CountByCandidate(ctx context.Context, electionID id.ElectionID) (map[id.CandidateID]int, error)
}

// IdentityStore answers eligibility queries; reads only.
type IdentityStore interface {
	IsVerified(ctx context.Context, userID id.UserID) (bool, error)
}

// ElectionRegistry resolves election state and candidate membership; reads only.
type ElectionRegistry interface {
	GetElection(ctx context.Context, electionID id.ElectionID) (*electionmodels.Election, error)
	CandidateBelongsTo(ctx context.Context, candidateID id.CandidateID, electionID id.ElectionID) (bool, error)
}

// Service enforces the single-vote invariant and issues receipts.
type Service struct {
	store    Store
	identity IdentityStore
	registry ElectionRegistry
	secret   string
	locks    pairLocks
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(store Store, identity IdentityStore, registry ElectionRegistry, secret string, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		identity: identity,
		registry: registry,
		secret:   secret,
		auditor:  cfg.auditor,
		metrics:  cfg.metrics,
		logger:   logger,
	}
}

// CastVote validates eligibility and records the vote.
//
// Order of checks: election active, voter verified, not already voted,
// candidate belongs to election, then the atomic append. The (election,
// voter) pair is locked from the already-voted check through the append, so
// two concurrent submissions cannot both observe "not voted"; the store's
// uniqueness guard backstops the lock. Once the pre-checks pass the
// operation runs to completion or fails atomically; a caller that times out
// must re-check HasVoted before retrying, because the original attempt may
// have committed.
func (s *Service) CastVote(ctx context.Context, electionID id.ElectionID, candidateID id.CandidateID, voterID id.UserID) (*models.Receipt, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)

	e, err := s.registry.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if status := e.StatusAt(now); status != electionmodels.StatusActive {
		s.metrics.IncrementVotesRejected("election_not_active")
		return nil, dErrors.New(dErrors.CodeInvalidState, "election not active")
	}

	verified, err := s.identity.IsVerified(ctx, voterID)
	if err != nil {
		return nil, err
	}
	if !verified {
		s.metrics.IncrementVotesRejected("voter_not_verified")
		return nil, dErrors.New(dErrors.CodeForbidden, "voter not verified")
	}

	mu := s.locks.lock(electionID, voterID)
	defer mu.Unlock()

	voted, err := s.store.HasVoted(ctx, electionID, voterID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check voter log")
	}
	if voted {
		s.metrics.IncrementVotesRejected("already_voted")
		return nil, dErrors.New(dErrors.CodeConflict, "already voted")
	}

	belongs, err := s.registry.CandidateBelongsTo(ctx, candidateID, electionID)
	if err != nil {
		return nil, err
	}
	if !belongs {
		s.metrics.IncrementVotesRejected("unknown_candidate")
		return nil, dErrors.New(dErrors.CodeValidation, "candidate does not belong to this election")
	}

	nonce, err := models.NewNonce()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to prepare vote")
	}
	vote := &models.Vote{
		ID:          id.NewVoteID(),
		ElectionID:  electionID,
		CandidateID: candidateID,
		VoterID:     voterID,
		Nonce:       nonce,
		CastAt:      now,
	}
	vote.VoteHash = models.ComputeVoteHash(s.secret, electionID, candidateID, voterID, now.UnixNano(), nonce)
	entry := &models.VoterLogEntry{
		ID:         uuid.New(),
		ElectionID: electionID,
		VoterID:    voterID,
		VotedAt:    now,
	}

	if err := s.store.AppendVote(ctx, entry, vote); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementVotesRejected("already_voted")
			return nil, dErrors.New(dErrors.CodeConflict, "already voted")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}

	s.metrics.IncrementVotesCast()
	s.metrics.ObserveCastVoteDuration(time.Since(start).Seconds())
	s.emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		Action:   string(audit.EventVoteCast),
		UserID:   voterID,
		Subject:  electionID.String(),
	})
	// The election is logged; the choice never is.
	s.logger.Info("vote recorded", "election_id", electionID.String())

	return &models.Receipt{VoteID: vote.ID, VoteHash: vote.VoteHash, CastAt: vote.CastAt}, nil
}

// HasVoted mirrors the voter-log lookup. Pure query, no side effects; this
// is also the idempotency check for retries after a timeout.
func (s *Service) HasVoted(ctx context.Context, electionID id.ElectionID, voterID id.UserID) (bool, error) {
	voted, err := s.store.HasVoted(ctx, electionID, voterID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check voter log")
	}
	return voted, nil
}

// VerifyReceipt recomputes the voter's own vote hash from stored content and
// compares it to the presented hash. Only the owning voter's vote is
// reachable; there is no cross-voter lookup.
func (s *Service) VerifyReceipt(ctx context.Context, electionID id.ElectionID, voterID id.UserID, presentedHash string) (bool, error) {
	v, err := s.store.FindVoteByVoter(ctx, electionID, voterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "no vote recorded for this election")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vote")
	}
	recomputed := models.ComputeVoteHash(s.secret, v.ElectionID, v.CandidateID, v.VoterID, v.CastAt.UnixNano(), v.Nonce)
	if !models.HashEqual(recomputed, v.VoteHash) {
		// Stored hash does not match stored content: ledger integrity failure.
		return false, dErrors.New(dErrors.CodeInternal, "vote record failed integrity check")
	}
	return models.HashEqual(presentedHash, v.VoteHash), nil
}

// CountByCandidate feeds the tally engine. Reads a consistent snapshot.
func (s *Service) CountByCandidate(ctx context.Context, electionID id.ElectionID) (map[id.CandidateID]int, error) {
	counts, err := s.store.CountByCandidate(ctx, electionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count votes")
	}
	return counts, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "action", event.Action, "error", err)
	}
}

type serviceConfig struct {
	auditor *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

func WithAuditor(p *audit.Publisher) Option {
	return func(c *serviceConfig) { c.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = l }
}
