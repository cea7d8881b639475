package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"certverify/internal/certificate/code"
	certmetrics "certverify/internal/certificate/metrics"
	"certverify/internal/certificate/models"
	"certverify/internal/certificate/store"
	"certverify/internal/crypto"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/platform/sentinel"
	"certverify/pkg/requestcontext"
)

// CertificateStore is the persistence port for certificates.
type CertificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error)
	FindByNumber(ctx context.Context, number string) (*models.Certificate, error)
	FindByCode(ctx context.Context, vcode string) (*models.Certificate, error)
	List(ctx context.Context, filter store.Filter) ([]*models.Certificate, error)
	Revoke(ctx context.Context, number, reason, actor string, now time.Time) (*models.Certificate, error)
}

// IssuerDirectory exposes the issuing-university facts the workflows need.
// The private key stays inside the university service boundary; this port is
// the only way the signer reaches it.
type IssuerDirectory interface {
	IsVerified(ctx context.Context, universityID string) (bool, error)
	SigningKey(ctx context.Context, universityID string) (string, error)
}

// Notifier is called after successful state changes. Delivery is
// best-effort: a failed notification never rolls back an issued certificate.
type Notifier interface {
	CertificateIssued(ctx context.Context, cert *models.Certificate) error
	CertificateRevoked(ctx context.Context, cert *models.Certificate, reason string) error
}

// Service orchestrates certificate issuance and revocation.
type Service struct {
	certs    CertificateStore
	issuers  IssuerDirectory
	notifier Notifier
	logger   *slog.Logger
	metrics  *certmetrics.Metrics
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *certmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(certs CertificateStore, issuers IssuerDirectory, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		certs:   certs,
		issuers: issuers,
		logger:  logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue runs the full issuance workflow: verified-issuer gate, payload
// validation and hashing, signing, verification code assignment, and a
// single store write. Any failure aborts with nothing persisted.
func (s *Service) Issue(ctx context.Context, fields models.IssueFields) (*models.Certificate, error) {
	cert, err := s.issue(ctx, fields)
	if err != nil {
		s.metrics.IncIssueFailure(string(dErrors.CodeOf(err)))
		return nil, err
	}

	s.metrics.IncIssued()
	s.logger.InfoContext(ctx, "certificate issued",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_number", cert.CertificateNumber,
		"university_id", cert.UniversityID,
	)
	if s.notifier != nil {
		if err := s.notifier.CertificateIssued(ctx, cert); err != nil {
			s.logger.WarnContext(ctx, "issuance notification failed",
				"certificate_number", cert.CertificateNumber,
				"error", err,
			)
		}
	}
	return cert, nil
}

func (s *Service) issue(ctx context.Context, fields models.IssueFields) (*models.Certificate, error) {
	// The issuer gate runs before any hashing or signing work.
	verified, err := s.issuers.IsVerified(ctx, fields.UniversityID)
	if err != nil {
		return nil, wrapIssuerErr(err)
	}
	if !verified {
		return nil, dErrors.New(dErrors.CodeForbidden, "university is not verified to issue certificates")
	}

	now := requestcontext.Now(ctx)
	cert, err := models.NewCertificate(newCertificateNumber(now), fields, now)
	if err != nil {
		return nil, err
	}

	signingKey, err := s.issuers.SigningKey(ctx, fields.UniversityID)
	if err != nil {
		return nil, wrapIssuerErr(err)
	}
	cert.DigitalSignature, err = crypto.Sign(cert.CertificateHash, signingKey)
	if err != nil {
		return nil, err
	}

	// The store's unique constraint is the real uniqueness check; on a code
	// collision we retry with a fresh code. Nothing is persisted until the
	// Create succeeds, so every failure path leaves no partial state.
	for attempt := 0; attempt < code.MaxAttempts; attempt++ {
		cert.VerificationCode, err = code.Generate()
		if err != nil {
			return nil, err
		}

		err = s.certs.Create(ctx, cert)
		if err == nil {
			return cert, nil
		}
		if errors.Is(err, store.ErrDuplicateCode) {
			s.metrics.IncCodeRetry()
			s.logger.WarnContext(ctx, "verification code collision, regenerating",
				"attempt", attempt+1,
			)
			continue
		}
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "certificate number already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate store unavailable")
	}
	return nil, code.ErrExhausted
}

// Revoke transitions a certificate to revoked. The store performs the
// conditional update, so concurrent revokes yield one success and one
// conflict.
func (s *Service) Revoke(ctx context.Context, number, reason, actor string) (*models.Certificate, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "certificateNumber is required")
	}
	if err := models.ValidateRevocationReason(reason); err != nil {
		return nil, err
	}

	cert, err := s.certs.Revoke(ctx, number, strings.TrimSpace(reason), actor, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "certificate is already revoked")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate store unavailable")
		}
	}

	s.metrics.IncRevoked()
	s.logger.InfoContext(ctx, "certificate revoked",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_number", cert.CertificateNumber,
		"revoked_by", actor,
	)
	if s.notifier != nil {
		if err := s.notifier.CertificateRevoked(ctx, cert, cert.RevocationReason); err != nil {
			s.logger.WarnContext(ctx, "revocation notification failed",
				"certificate_number", cert.CertificateNumber,
				"error", err,
			)
		}
	}
	return cert, nil
}

// GetByNumber fetches a single certificate.
func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Certificate, error) {
	cert, err := s.certs.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate store unavailable")
	}
	return cert, nil
}

// List returns certificates matching the filter.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]*models.Certificate, error) {
	if filter.Status != "" &&
		filter.Status != string(models.StatusActive) &&
		filter.Status != string(models.StatusRevoked) {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be active or revoked")
	}
	certs, err := s.certs.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate store unavailable")
	}
	return certs, nil
}

func wrapIssuerErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "issuing university not found")
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "university directory unavailable")
}

// newCertificateNumber builds a human-readable unique identifier, e.g.
// CERT-2025-A1B2C3D4. Uniqueness is still enforced by the store.
func newCertificateNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("CERT-%d-%s", now.Year(), suffix)
}
