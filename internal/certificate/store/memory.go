package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"certverify/internal/certificate/models"
	"certverify/pkg/platform/sentinel"
)

// InMemory is a map-backed certificate store for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.Certificate
	numbers map[string]uuid.UUID
	codes   map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[uuid.UUID]*models.Certificate),
		numbers: make(map[string]uuid.UUID),
		codes:   make(map[string]uuid.UUID),
	}
}

// Create persists a new certificate, enforcing number and code uniqueness
// under a single lock so concurrent issuance cannot race past the check.
func (s *InMemory) Create(ctx context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.numbers[cert.CertificateNumber]; taken {
		return ErrDuplicateNumber
	}
	if _, taken := s.codes[cert.VerificationCode]; taken {
		return ErrDuplicateCode
	}

	cp := *cert
	s.byID[cp.ID] = &cp
	s.numbers[cp.CertificateNumber] = cp.ID
	s.codes[cp.VerificationCode] = cp.ID
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *cert
	return &cp, nil
}

func (s *InMemory) FindByNumber(ctx context.Context, number string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.numbers[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemory) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// List returns certificates matching the filter, newest first.
func (s *InMemory) List(ctx context.Context, filter Filter) ([]*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Certificate
	for _, cert := range s.byID {
		if filter.StudentEmail != "" && !strings.EqualFold(cert.StudentEmail, filter.StudentEmail) {
			continue
		}
		if filter.Status != "" && string(cert.Status) != filter.Status {
			continue
		}
		cp := *cert
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Revoke performs the atomic active→revoked transition. The validate and
// mutate steps run under one lock, mirroring the conditional UPDATE of the
// Postgres store: exactly one of two concurrent revokes succeeds.
func (s *InMemory) Revoke(ctx context.Context, number, reason, actor string, now time.Time) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.numbers[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cert := s.byID[id]
	if !cert.IsActive() {
		return nil, sentinel.ErrInvalidState
	}

	cert.ApplyRevocation(reason, actor, now)
	cp := *cert
	return &cp, nil
}
