package store

import (
	"context"
	"sync"

	"civitas/internal/roles/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

// InMemory keeps role assignments in a mutex-guarded map. Used in unit tests
// and dev mode; Postgres is the durable twin.
type InMemory struct {
	mu sync.RWMutex
	// keyed by user, then role
	byUser map[id.UserID]map[models.Role]*models.Assignment
}

func NewInMemory() *InMemory {
	return &InMemory{byUser: make(map[id.UserID]map[models.Role]*models.Assignment)}
}

// Create stores an assignment; duplicate (user, role) pairs conflict.
func (s *InMemory) Create(ctx context.Context, a *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles := s.byUser[a.UserID]
	if roles == nil {
		roles = make(map[models.Role]*models.Assignment)
		s.byUser[a.UserID] = roles
	}
	if _, exists := roles[a.Role]; exists {
		return sentinel.ErrConflict
	}
	cp := *a
	roles[a.Role] = &cp
	return nil
}

// Delete removes an assignment.
func (s *InMemory) Delete(ctx context.Context, userID id.UserID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles := s.byUser[userID]
	if _, exists := roles[role]; !exists {
		return sentinel.ErrNotFound
	}
	delete(roles, role)
	return nil
}

// Has reports whether the user holds the role.
func (s *InMemory) Has(ctx context.Context, userID id.UserID, role models.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byUser[userID][role]
	return ok, nil
}

// ListByUser returns the user's assignments.
func (s *InMemory) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Assignment, 0, len(s.byUser[userID]))
	for _, a := range s.byUser[userID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
