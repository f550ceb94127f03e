package tally

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"civitas/internal/audit"
	electionmodels "civitas/internal/election/models"
	"civitas/internal/platform/metrics"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/requestcontext"
)

// Ledger feeds candidate counts; reads only.
type Ledger interface {
	CountByCandidate(ctx context.Context, electionID id.ElectionID) (map[id.CandidateID]int, error)
}

// Registry resolves elections and rosters; reads only.
type Registry interface {
	GetElection(ctx context.Context, electionID id.ElectionID) (*electionmodels.Election, error)
	ListCandidates(ctx context.Context, electionID id.ElectionID) ([]*electionmodels.Candidate, error)
	ListParties(ctx context.Context) ([]*electionmodels.Party, error)
}

// RoleAuthority gates early tallies; queries only.
type RoleAuthority interface {
	IsAdminOrOfficial(ctx context.Context, userID id.UserID) (bool, error)
}

// Service computes election results. Full recomputation from the ledger is
// the correctness baseline; the redis cache is an optimization for completed
// elections whose ledgers can no longer change.
type Service struct {
	ledger   Ledger
	registry Registry
	authz    RoleAuthority
	cache    *RedisCache
	group    singleflight.Group
	metrics  *metrics.Metrics
	auditor  *audit.Publisher
	logger   *slog.Logger
}

func New(ledger Ledger, registry Registry, authz RoleAuthority, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:   ledger,
		registry: registry,
		authz:    authz,
		cache:    cfg.cache,
		metrics:  cfg.metrics,
		auditor:  cfg.auditor,
		logger:   logger,
	}
}

// Tally produces the per-candidate counts for an election. Results are
// public once the election is completed; before that only admins and
// officials may see them (the UI's "results pending" state for everyone
// else).
func (s *Service) Tally(ctx context.Context, electionID id.ElectionID) (*Result, error) {
	now := requestcontext.Now(ctx)
	e, err := s.registry.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	status := e.StatusAt(now)

	if status != electionmodels.StatusCompleted {
		actor := requestcontext.ActorID(ctx)
		if actor.IsZero() {
			return nil, dErrors.New(dErrors.CodeInvalidState, "results are available after the election completes")
		}
		allowed, err := s.authz.IsAdminOrOfficial(ctx, actor)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, dErrors.New(dErrors.CodeInvalidState, "results are available after the election completes")
		}
	}

	counts, err := s.counts(ctx, electionID, status)
	if err != nil {
		return nil, err
	}

	candidates, err := s.registry.ListCandidates(ctx, electionID)
	if err != nil {
		return nil, err
	}
	partyNames, err := s.partyNames(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ElectionID:   electionID,
		ElectionName: e.Name,
		Status:       string(status),
		ComputedAt:   now,
		Candidates:   make([]CandidateResult, 0, len(candidates)),
	}
	for _, c := range candidates {
		row := CandidateResult{
			CandidateID:   c.ID,
			CandidateName: c.FullName,
			VoteCount:     counts[c.ID],
		}
		if c.PartyID != nil {
			row.PartyName = partyNames[*c.PartyID]
		}
		result.TotalVotes += row.VoteCount
		result.Candidates = append(result.Candidates, row)
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		Action:   string(audit.EventTallyComputed),
		UserID:   requestcontext.ActorID(ctx),
		Subject:  electionID.String(),
	})
	return result, nil
}

// Recompute always performs the full ledger count, bypassing the cache. It
// is the consistency baseline the cache is checked against in tests.
func (s *Service) Recompute(ctx context.Context, electionID id.ElectionID) (map[id.CandidateID]int, error) {
	s.metrics.IncrementTallyRecomputations()
	return s.ledger.CountByCandidate(ctx, electionID)
}

// counts serves from the cache for completed elections, collapsing
// concurrent recomputations of the same election through singleflight.
func (s *Service) counts(ctx context.Context, electionID id.ElectionID, status electionmodels.Status) (map[id.CandidateID]int, error) {
	if status == electionmodels.StatusCompleted {
		if cached, ok := s.cache.Get(ctx, electionID); ok {
			s.metrics.IncrementTallyCacheHits()
			return cached, nil
		}
		s.metrics.IncrementTallyCacheMisses()
	}

	v, err, _ := s.group.Do(electionID.String(), func() (any, error) {
		counts, err := s.Recompute(ctx, electionID)
		if err != nil {
			return nil, err
		}
		if status == electionmodels.StatusCompleted {
			s.cache.Put(ctx, electionID, counts)
		}
		return counts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[id.CandidateID]int), nil
}

func (s *Service) partyNames(ctx context.Context) (map[id.PartyID]string, error) {
	parties, err := s.registry.ListParties(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[id.PartyID]string, len(parties))
	for _, p := range parties {
		names[p.ID] = p.Name
	}
	return names, nil
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
	cache   *RedisCache
	metrics *metrics.Metrics
	auditor *audit.Publisher
	logger  *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

func WithCache(c *RedisCache) Option {
	return func(cfg *serviceConfig) { cfg.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithAuditor(p *audit.Publisher) Option {
	return func(cfg *serviceConfig) { cfg.auditor = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = l }
}
