package store

import (
	"context"
	"sync"

	"civitas/internal/identity/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

// InMemory keeps profiles in mutex-guarded maps, one entry per user.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.ProfileID]*models.Profile
	byUserID map[id.UserID]id.ProfileID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.ProfileID]*models.Profile),
		byUserID: make(map[id.UserID]id.ProfileID),
	}
}

// Create stores a profile; a second profile for the same user conflicts.
func (s *InMemory) Create(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUserID[p.UserID]; exists {
		return sentinel.ErrConflict
	}
	cp := *p
	s.byID[p.ID] = &cp
	s.byUserID[p.UserID] = p.ID
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[profileID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindByUserID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profileID, ok := s.byUserID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[profileID]
	return &cp, nil
}

// Execute runs validate then mutate while holding the store lock, so a status
// check and its transition are atomic. Mirrors the Postgres FOR UPDATE path.
func (s *InMemory) Execute(ctx context.Context, profileID id.ProfileID, validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[profileID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)
	cp := *p
	return &cp, nil
}
