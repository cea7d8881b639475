package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"certverify/internal/audit/models"
)

// InMemory is an append-only log kept in memory, for tests and single-node
// deployments.
type InMemory struct {
	mu      sync.RWMutex
	entries []*models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(ctx context.Context, e *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.entries = append(s.entries, &cp)
	return nil
}

// ListByCertificate returns entries for one certificate, oldest first.
func (s *InMemory) ListByCertificate(ctx context.Context, certificateID uuid.UUID) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Entry
	for _, e := range s.entries {
		if e.CertificateID != nil && *e.CertificateID == certificateID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// All returns every entry, oldest first.
func (s *InMemory) All(ctx context.Context) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
