package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"civitas/internal/election/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

// InMemory keeps elections, candidates, and parties in mutex-guarded maps.
type InMemory struct {
	mu         sync.RWMutex
	elections  map[id.ElectionID]*models.Election
	candidates map[id.CandidateID]*models.Candidate
	parties    map[id.PartyID]*models.Party
}

func NewInMemory() *InMemory {
	return &InMemory{
		elections:  make(map[id.ElectionID]*models.Election),
		candidates: make(map[id.CandidateID]*models.Candidate),
		parties:    make(map[id.PartyID]*models.Party),
	}
}

func (s *InMemory) CreateElection(ctx context.Context, e *models.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.elections[e.ID] = &cp
	return nil
}

func (s *InMemory) FindElection(ctx context.Context, electionID id.ElectionID) (*models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.elections[electionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *InMemory) ListElections(ctx context.Context, constituency string) ([]*models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Election, 0, len(s.elections))
	for _, e := range s.elections {
		if constituency != "" && !strings.EqualFold(e.Constituency, constituency) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

// ExecuteElection runs validate then mutate under the store lock, so the
// cancellation check and write are atomic.
func (s *InMemory) ExecuteElection(ctx context.Context, electionID id.ElectionID, validate func(*models.Election) error, mutate func(*models.Election)) (*models.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.elections[electionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(e); err != nil {
		return nil, err
	}
	mutate(e)
	cp := *e
	return &cp, nil
}

func (s *InMemory) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elections[c.ElectionID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *c
	s.candidates[c.ID] = &cp
	return nil
}

func (s *InMemory) FindCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) ListCandidates(ctx context.Context, electionID id.ElectionID) ([]*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Candidate
	for _, c := range s.candidates {
		if c.ElectionID == electionID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) CreateParty(ctx context.Context, p *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.parties {
		if strings.EqualFold(existing.Name, p.Name) {
			return sentinel.ErrConflict
		}
	}
	cp := *p
	s.parties[p.ID] = &cp
	return nil
}

func (s *InMemory) FindParty(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parties[partyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) ListParties(ctx context.Context) ([]*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Party, 0, len(s.parties))
	for _, p := range s.parties {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
