// Package service implements the identity store: voter profile registration
// and the verification lifecycle that gates voting eligibility.
package service

import (
	"context"
	"errors"
	"log/slog"

	"civitas/internal/audit"
	"civitas/internal/identity/models"
	"civitas/internal/platform/metrics"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/requestcontext"
)

// Store is the persistence port for profiles.
type Store interface {
	Create(ctx context.Context, p *models.Profile) error
	FindByID(ctx context.Context, profileID id.ProfileID) (*models.Profile, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Profile, error)
	Execute(ctx context.Context, profileID id.ProfileID, validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error)
}

// RoleAuthority is the authorization port; queries only, no writes.
type RoleAuthority interface {
	IsAdminOrOfficial(ctx context.Context, userID id.UserID) (bool, error)
}

// Service orchestrates the profile lifecycle.
type Service struct {
	profiles Store
	authz    RoleAuthority
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(profiles Store, authz RoleAuthority, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		profiles: profiles,
		authz:    authz,
		auditor:  cfg.auditor,
		metrics:  cfg.metrics,
		logger:   logger,
	}
}

// RegisterProfile creates a pending profile from a registration submission.
// A user who already has a profile gets a validation error; re-registration
// is a malformed request, not a race to resolve.
func (s *Service) RegisterProfile(ctx context.Context, in models.RegisterInput) (*models.Profile, error) {
	p, err := models.NewProfile(in, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeValidation, "a profile already exists for this user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register profile")
	}

	s.metrics.IncrementProfilesRegistered()
	s.emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   string(audit.EventProfileRegistered),
		UserID:   p.UserID,
		Subject:  p.ID.String(),
	})
	return p, nil
}

// SetVerificationStatus transitions a profile's verification status. Only
// admins and election officials may call it. The change is visible to
// eligibility checks as soon as it returns; there is no caching layer.
func (s *Service) SetVerificationStatus(ctx context.Context, profileID id.ProfileID, status models.VerificationStatus) (*models.Profile, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	allowed, err := s.authz.IsAdminOrOfficial(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin or election official role required")
	}
	return s.transition(ctx, profileID, status, actor.String())
}

// OnIdentityVerified is the callback consumed from the external verification
// provider (biometric/OTP). The provider is a trusted system actor; no role
// check applies.
func (s *Service) OnIdentityVerified(ctx context.Context, userID id.UserID, outcome Outcome) error {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	status := models.VerificationRejected
	if outcome == OutcomeApproved {
		status = models.VerificationVerified
	}
	_, err = s.transition(ctx, p.ID, status, "verification-provider")
	return err
}

// IsVerified reports whether the user's profile is verified. Used by the
// vote ledger before accepting a vote; a user with no profile is not
// verified. Pure query, no side effects.
func (s *Service) IsVerified(ctx context.Context, userID id.UserID) (bool, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p.IsVerified(), nil
}

// GetProfile returns the profile owned by the user.
func (s *Service) GetProfile(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

func (s *Service) transition(ctx context.Context, profileID id.ProfileID, status models.VerificationStatus, actor string) (*models.Profile, error) {
	now := requestcontext.Now(ctx)
	p, err := s.profiles.Execute(ctx, profileID,
		func(p *models.Profile) error {
			return p.CanTransitionTo(status)
		},
		func(p *models.Profile) {
			p.ApplyTransition(status, now)
		})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		if dErrors.HasCode(err, dErrors.CodeInvalidState) || dErrors.HasCode(err, dErrors.CodeValidation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verification status")
	}

	if status == models.VerificationVerified {
		s.metrics.IncrementProfilesVerified()
	}
	s.emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   string(audit.EventProfileVerificationChanged),
		UserID:   p.UserID,
		Subject:  p.ID.String(),
		Decision: string(status),
		ActorID:  actor,
	})
	s.logger.Info("verification status changed",
		"profile_id", p.ID.String(),
		"status", string(status),
	)
	return p, nil
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
