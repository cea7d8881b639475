package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"certverify/internal/crypto"
	"certverify/internal/university/models"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/platform/sentinel"
	"certverify/pkg/requestcontext"
)

// UniversityStore is the persistence port for universities.
type UniversityStore interface {
	Create(ctx context.Context, u *models.University) error
	FindByID(ctx context.Context, id string) (*models.University, error)
	SetVerified(ctx context.Context, id string, verified bool, now time.Time) (*models.University, error)
	List(ctx context.Context) ([]*models.University, error)
}

// Service manages university registration and the verified-issuer gate. It
// also implements the IssuerDirectory and PublicKeyDirectory ports consumed
// by the certificate and verification services, keeping the private key
// inside this boundary.
type Service struct {
	universities UniversityStore
	logger       *slog.Logger
}

func New(universities UniversityStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{universities: universities, logger: logger}
}

// Register creates a university with a freshly generated key pair. New
// universities start unverified; an admin must verify them before they can
// issue certificates.
func (s *Service) Register(ctx context.Context, fields models.RegisterFields) (*models.University, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	u := &models.University{
		ID:         strings.TrimSpace(fields.ID),
		Name:       strings.TrimSpace(fields.Name),
		Email:      strings.ToLower(strings.TrimSpace(fields.Email)),
		Address:    strings.TrimSpace(fields.Address),
		Phone:      strings.TrimSpace(fields.Phone),
		PublicKey:  keys.PublicKey,
		PrivateKey: keys.PrivateKey,
		Verified:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if fields.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(fields.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "password hashing failed")
		}
		u.PasswordHash = string(hash)
	}

	if err := s.universities.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "university id, name, or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "university store unavailable")
	}

	s.logger.InfoContext(ctx, "university registered",
		"university_id", u.ID,
		"name", u.Name,
	)
	return u, nil
}

// Get fetches a university by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.University, error) {
	u, err := s.universities.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return u, nil
}

// List returns all universities.
func (s *Service) List(ctx context.Context) ([]*models.University, error) {
	us, err := s.universities.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "university store unavailable")
	}
	return us, nil
}

// SetVerified toggles the issuance gate. Admin-only at the transport layer.
func (s *Service) SetVerified(ctx context.Context, id string, verified bool) (*models.University, error) {
	u, err := s.universities.SetVerified(ctx, id, verified, requestcontext.Now(ctx))
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.logger.InfoContext(ctx, "university verification changed",
		"university_id", id,
		"verified", verified,
	)
	return u, nil
}

// IsVerified implements the issuer gate consumed by the issuance workflow.
func (s *Service) IsVerified(ctx context.Context, universityID string) (bool, error) {
	u, err := s.universities.FindByID(ctx, universityID)
	if err != nil {
		return false, wrapStoreErr(err)
	}
	return u.Verified, nil
}

// SigningKey hands the issuance workflow the private key. This method is the
// only reader of the private key outside this package.
func (s *Service) SigningKey(ctx context.Context, universityID string) (string, error) {
	u, err := s.universities.FindByID(ctx, universityID)
	if err != nil {
		return "", wrapStoreErr(err)
	}
	if u.PrivateKey == "" {
		return "", dErrors.New(dErrors.CodeInternal, "university has no signing key")
	}
	return u.PrivateKey, nil
}

// IssuerName returns the display name shown on verification results.
func (s *Service) IssuerName(ctx context.Context, universityID string) (string, error) {
	u, err := s.universities.FindByID(ctx, universityID)
	if err != nil {
		return "", wrapStoreErr(err)
	}
	return u.Name, nil
}

// PublicKey serves verifiers re-checking signatures.
func (s *Service) PublicKey(ctx context.Context, universityID string) (string, error) {
	u, err := s.universities.FindByID(ctx, universityID)
	if err != nil {
		return "", wrapStoreErr(err)
	}
	return u.PublicKey, nil
}

func wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "university not found")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "university store unavailable")
}
