// Package store persists university records. InMemory backs development and
// tests; Postgres is production. Email and name uniqueness is enforced
// case-insensitively in both.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"certverify/internal/university/models"
	"certverify/pkg/platform/sentinel"
)

// InMemory is a map-backed university store.
type InMemory struct {
	mu   sync.RWMutex
	byID map[string]*models.University
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]*models.University)}
}

// Create persists a new university, rejecting duplicate IDs, names, and
// emails.
func (s *InMemory) Create(ctx context.Context, u *models.University) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byID[u.ID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	for _, existing := range s.byID {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Name, u.Name) {
			return sentinel.ErrAlreadyUsed
		}
	}

	cp := *u
	s.byID[cp.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id string) (*models.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// SetVerified updates the issuance gate atomically.
func (s *InMemory) SetVerified(ctx context.Context, id string, verified bool, now time.Time) (*models.University, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	u.ApplyVerification(verified, now)
	cp := *u
	return &cp, nil
}

// List returns all universities sorted by ID.
func (s *InMemory) List(ctx context.Context) ([]*models.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.University, 0, len(s.byID))
	for _, u := range s.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
