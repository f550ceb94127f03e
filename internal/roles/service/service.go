// Package service implements the role authority: who may administer
// elections, verify profiles, and assign further roles.
package service

import (
	"context"
	"errors"
	"log/slog"

	"civitas/internal/audit"
	"civitas/internal/roles/models"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/requestcontext"
)

// Store is the persistence port for role assignments.
type Store interface {
	Create(ctx context.Context, a *models.Assignment) error
	Delete(ctx context.Context, userID id.UserID, role models.Role) error
	Has(ctx context.Context, userID id.UserID, role models.Role) (bool, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Assignment, error)
}

// Service answers authorization queries and manages role assignments.
// The query methods are pure reads, safe to call from any component.
type Service struct {
	store   Store
	auditor *audit.Publisher
	logger  *slog.Logger
}

func New(store Store, opts ...Option) *Service {
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
		auditor: cfg.auditor,
		logger:  logger,
	}
}

// AssignRole grants a role to a user. Only admins may assign roles; the actor
// is taken from the request context.
func (s *Service) AssignRole(ctx context.Context, userID id.UserID, role models.Role) (*models.Assignment, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	a, err := models.NewAssignment(userID, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already holds this role")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign role")
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   string(audit.EventRoleAssigned),
		UserID:   userID,
		Subject:  string(role),
		ActorID:  requestcontext.ActorID(ctx).String(),
	})
	return a, nil
}

// RevokeRole removes a role from a user. Admin only.
func (s *Service) RevokeRole(ctx context.Context, userID id.UserID, role models.Role) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if !role.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}
	if err := s.store.Delete(ctx, userID, role); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "role assignment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke role")
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   string(audit.EventRoleRevoked),
		UserID:   userID,
		Subject:  string(role),
		ActorID:  requestcontext.ActorID(ctx).String(),
	})
	return nil
}

// HasRole reports whether the user holds the role. Pure query, no side effects.
func (s *Service) HasRole(ctx context.Context, userID id.UserID, role models.Role) (bool, error) {
	has, err := s.store.Has(ctx, userID, role)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query role")
	}
	return has, nil
}

// IsAdminOrOfficial reports whether the user may perform administrative
// election operations. Pure query, no side effects.
func (s *Service) IsAdminOrOfficial(ctx context.Context, userID id.UserID) (bool, error) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleElectionOfficial} {
		has, err := s.store.Has(ctx, userID, role)
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query role")
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}

// ListRoles returns all assignments for a user.
func (s *Service) ListRoles(ctx context.Context, userID id.UserID) ([]*models.Assignment, error) {
	out, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list roles")
	}
	return out, nil
}

func (s *Service) requireAdmin(ctx context.Context) error {
	actor := requestcontext.ActorID(ctx)
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	isAdmin, err := s.store.Has(ctx, actor, models.RoleAdmin)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to query role")
	}
	if !isAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
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
	logger  *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

func WithAuditor(p *audit.Publisher) Option {
	return func(c *serviceConfig) { c.auditor = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = l }
}

// SeedAdmin grants the admin role directly, bypassing the actor check. Used
// only by bootstrap wiring and tests; there is no admin to authorize the
// first admin.
func SeedAdmin(ctx context.Context, store Store, userID id.UserID) error {
	a, err := models.NewAssignment(userID, models.RoleAdmin, requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	err = store.Create(ctx, a)
	if err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return err
	}
	return nil
}
