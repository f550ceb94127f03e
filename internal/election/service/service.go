// Package service implements the election registry: definitions, candidate
// rosters, and the derived lifecycle status.
package service

import (
	"context"
	"errors"
	"log/slog"

	"civitas/internal/audit"
	"civitas/internal/election/models"
	"civitas/internal/platform/metrics"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/requestcontext"
)

// Store is the persistence port for elections, candidates, and parties.
type Store interface {
	CreateElection(ctx context.Context, e *models.Election) error
	FindElection(ctx context.Context, electionID id.ElectionID) (*models.Election, error)
	ListElections(ctx context.Context, constituency string) ([]*models.Election, error)
	ExecuteElection(ctx context.Context, electionID id.ElectionID, validate func(*models.Election) error, mutate func(*models.Election)) (*models.Election, error)
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	FindCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	ListCandidates(ctx context.Context, electionID id.ElectionID) ([]*models.Candidate, error)
	CreateParty(ctx context.Context, p *models.Party) error
	FindParty(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	ListParties(ctx context.Context) ([]*models.Party, error)
}

// RoleAuthority is the authorization port; queries only, no writes.
type RoleAuthority interface {
	IsAdminOrOfficial(ctx context.Context, userID id.UserID) (bool, error)
	HasRoleAdmin(ctx context.Context, userID id.UserID) (bool, error)
}

// Service orchestrates the election registry.
type Service struct {
	store   Store
	authz   RoleAuthority
	auditor *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(store Store, authz RoleAuthority, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		authz:   authz,
		auditor: cfg.auditor,
		metrics: cfg.metrics,
		logger:  logger,
	}
}

// CreateElection creates an election with an upcoming window. Admin or
// official only.
func (s *Service) CreateElection(ctx context.Context, def models.Definition) (*models.Election, error) {
	if err := s.requireOfficial(ctx); err != nil {
		return nil, err
	}

	e, err := models.NewElection(def, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateElection(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create election")
	}

	s.metrics.IncrementElectionsCreated()
	s.emit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   string(audit.EventElectionCreated),
		UserID:   requestcontext.ActorID(ctx),
		Subject:  e.ID.String(),
	})
	return e, nil
}

// ComputeStatus derives the election's lifecycle status at now. Pure.
func (s *Service) ComputeStatus(ctx context.Context, electionID id.ElectionID) (models.Status, error) {
	e, err := s.getElection(ctx, electionID)
	if err != nil {
		return "", err
	}
	return e.StatusAt(requestcontext.Now(ctx)), nil
}

// IsElectionActive reports whether voting is open right now. Pure query.
func (s *Service) IsElectionActive(ctx context.Context, electionID id.ElectionID) (bool, error) {
	status, err := s.ComputeStatus(ctx, electionID)
	if err != nil {
		return false, err
	}
	return status == models.StatusActive, nil
}

// AddCandidate adds a candidate to an upcoming election. Admin or official
// only; rosters are frozen once the election starts.
func (s *Service) AddCandidate(ctx context.Context, electionID id.ElectionID, in models.CandidateInput) (*models.Candidate, error) {
	if err := s.requireOfficial(ctx); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	e, err := s.getElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if status := e.StatusAt(now); status != models.StatusUpcoming {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "cannot add candidates to a %s election", status)
	}
	if in.PartyID != nil {
		if _, err := s.store.FindParty(ctx, *in.PartyID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "party not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
		}
	}

	c, err := models.NewCandidate(electionID, in, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "election not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add candidate")
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   string(audit.EventCandidateAdded),
		UserID:   requestcontext.ActorID(ctx),
		Subject:  c.ID.String(),
	})
	return c, nil
}

// CancelElection performs the one-way terminal cancellation. Admin or
// official only; completed and cancelled elections cannot be cancelled.
func (s *Service) CancelElection(ctx context.Context, electionID id.ElectionID) (*models.Election, error) {
	if err := s.requireOfficial(ctx); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	e, err := s.store.ExecuteElection(ctx, electionID,
		func(e *models.Election) error {
			return e.CanCancel(now)
		},
		func(e *models.Election) {
			e.ApplyCancellation(now)
		})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "election not found")
		}
		if dErrors.HasCode(err, dErrors.CodeInvalidState) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel election")
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   string(audit.EventElectionCancelled),
		UserID:   requestcontext.ActorID(ctx),
		Subject:  e.ID.String(),
	})
	s.logger.Info("election cancelled", "election_id", e.ID.String())
	return e, nil
}

// GetElection returns the election definition.
func (s *Service) GetElection(ctx context.Context, electionID id.ElectionID) (*models.Election, error) {
	return s.getElection(ctx, electionID)
}

// ListElections returns elections, optionally filtered by constituency and by
// status at the request time.
func (s *Service) ListElections(ctx context.Context, constituency string, status models.Status) ([]*models.Election, error) {
	all, err := s.store.ListElections(ctx, constituency)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list elections")
	}
	if status == "" {
		return all, nil
	}
	now := requestcontext.Now(ctx)
	var out []*models.Election
	for _, e := range all {
		if e.StatusAt(now) == status {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListCandidates returns the election's roster.
func (s *Service) ListCandidates(ctx context.Context, electionID id.ElectionID) ([]*models.Candidate, error) {
	if _, err := s.getElection(ctx, electionID); err != nil {
		return nil, err
	}
	out, err := s.store.ListCandidates(ctx, electionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list candidates")
	}
	return out, nil
}

// CandidateBelongsTo reports whether the candidate stands in the election.
func (s *Service) CandidateBelongsTo(ctx context.Context, candidateID id.CandidateID, electionID id.ElectionID) (bool, error) {
	c, err := s.store.FindCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidate")
	}
	return c.ElectionID == electionID, nil
}

// CreateParty creates reference party data. Admin only.
func (s *Service) CreateParty(ctx context.Context, name, abbreviation, symbolURL string) (*models.Party, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	isAdmin, err := s.authz.HasRoleAdmin(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}

	p, err := models.NewParty(name, abbreviation, symbolURL, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateParty(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "party name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create party")
	}
	return p, nil
}

// ListParties returns all parties.
func (s *Service) ListParties(ctx context.Context) ([]*models.Party, error) {
	out, err := s.store.ListParties(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list parties")
	}
	return out, nil
}

func (s *Service) getElection(ctx context.Context, electionID id.ElectionID) (*models.Election, error) {
	e, err := s.store.FindElection(ctx, electionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "election not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load election")
	}
	return e, nil
}

func (s *Service) requireOfficial(ctx context.Context) error {
	actor := requestcontext.ActorID(ctx)
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	allowed, err := s.authz.IsAdminOrOfficial(ctx, actor)
	if err != nil {
		return err
	}
	if !allowed {
		return dErrors.New(dErrors.CodeForbidden, "admin or election official role required")
	}
	return nil
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
