package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	auditmodels "certverify/internal/audit/models"
	"certverify/internal/certificate/models"
	"certverify/internal/crypto"
	"certverify/internal/verification/metrics"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/platform/sentinel"
)

// Failure reasons. A failed check is a result, not an error; errors are
// reserved for the service itself being unable to decide.
const (
	ReasonNotFound         = "not found"
	ReasonHashMismatch     = "hash mismatch"
	ReasonInvalidSignature = "invalid signature"
	ReasonRevoked          = "revoked"
)

// maxBulkConcurrency bounds parallel checks in a bulk request.
const maxBulkConcurrency = 8

// CertificateLookup is the read-side port onto the certificate store.
type CertificateLookup interface {
	FindByNumber(ctx context.Context, certificateNumber string) (*models.Certificate, error)
	FindByCode(ctx context.Context, verificationCode string) (*models.Certificate, error)
}

// IssuerKeys resolves the issuing university's public key and display name.
type IssuerKeys interface {
	PublicKey(ctx context.Context, universityID string) (string, error)
	IssuerName(ctx context.Context, universityID string) (string, error)
}

// Recorder appends to and reads back the verification log.
type Recorder interface {
	Record(ctx context.Context, e *auditmodels.Entry) error
	History(ctx context.Context, certificateID uuid.UUID) ([]*auditmodels.Entry, error)
}

// Request identifies the certificate to verify. Exactly one of the two
// fields must be set.
type Request struct {
	CertificateNumber string `json:"certificateNumber,omitempty"`
	VerificationCode  string `json:"verificationCode,omitempty"`
}

func (r Request) validate() error {
	number := strings.TrimSpace(r.CertificateNumber)
	code := strings.TrimSpace(r.VerificationCode)
	if number == "" && code == "" {
		return dErrors.New(dErrors.CodeValidation, "certificateNumber or verificationCode is required")
	}
	if number != "" && code != "" {
		return dErrors.New(dErrors.CodeValidation, "provide either certificateNumber or verificationCode, not both")
	}
	return nil
}

// Issuer is the public view of the issuing university in a result.
type Issuer struct {
	ID   string `json:"universityId"`
	Name string `json:"name"`
}

// Result is the outcome of one verification. Reason is set only when the
// certificate is not valid. Certificate and University are populated
// whenever the lookup found a certificate, including for revoked and
// tampered ones, so the verifier can see what was checked.
type Result struct {
	Valid       bool                `json:"valid"`
	Reason      string              `json:"reason,omitempty"`
	Method      string              `json:"method"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
	University  *Issuer             `json:"university,omitempty"`
}

type Service struct {
	certificates CertificateLookup
	issuers      IssuerKeys
	recorder     Recorder
	cache        *CodeCache
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Options struct {
	Cache   *CodeCache
	Metrics *metrics.Metrics
}

func New(certificates CertificateLookup, issuers IssuerKeys, recorder Recorder, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		certificates: certificates,
		issuers:      issuers,
		recorder:     recorder,
		cache:        opts.Cache,
		logger:       logger,
		metrics:      opts.Metrics,
	}
}

// Verify runs the full check sequence against one certificate. Checks run
// in a fixed order and stop at the first failure: existence, payload hash,
// signature, revocation. Every invocation appends exactly one entry to the
// verification log.
func (s *Service) Verify(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, cert, err := s.check(ctx, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDuration(time.Since(start))
	s.metrics.IncOutcome(outcomeLabel(result))

	s.record(ctx, req, result, cert)
	return result, nil
}

func (s *Service) check(ctx context.Context, req Request) (*Result, *models.Certificate, error) {
	method := auditmodels.MethodCertificateNumber
	if req.VerificationCode != "" {
		method = auditmodels.MethodVerificationCode
	}

	cert, err := s.lookup(ctx, req)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &Result{Valid: false, Reason: ReasonNotFound, Method: method}, nil, nil
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate store unavailable")
	}

	result := &Result{Method: method, Certificate: cert}
	if name, err := s.issuers.IssuerName(ctx, cert.UniversityID); err == nil {
		result.University = &Issuer{ID: cert.UniversityID, Name: name}
	}

	if cert.ComputeHash() != cert.CertificateHash {
		result.Reason = ReasonHashMismatch
		return result, cert, nil
	}

	ok, err := s.verifySignature(ctx, cert)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		result.Reason = ReasonInvalidSignature
		return result, cert, nil
	}

	if !cert.IsActive() {
		result.Reason = ReasonRevoked
		return result, cert, nil
	}

	result.Valid = true
	return result, cert, nil
}

func outcomeLabel(result *Result) string {
	if result.Valid {
		return "valid"
	}
	return result.Reason
}

func (s *Service) lookup(ctx context.Context, req Request) (*models.Certificate, error) {
	if req.CertificateNumber != "" {
		return s.certificates.FindByNumber(ctx, strings.TrimSpace(req.CertificateNumber))
	}

	code := strings.ToUpper(strings.TrimSpace(req.VerificationCode))
	if number := s.cache.Lookup(ctx, code); number != "" {
		s.metrics.IncCacheHit()
		return s.certificates.FindByNumber(ctx, number)
	}

	cert, err := s.certificates.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.cache.Prime(ctx, code, cert.CertificateNumber)
	return cert, nil
}

// verifySignature re-checks the issuer's signature over the stored hash. A
// missing issuer or a malformed stored signature reads as an invalid
// signature rather than a server failure.
func (s *Service) verifySignature(ctx context.Context, cert *models.Certificate) (bool, error) {
	publicKey, err := s.issuers.PublicKey(ctx, cert.UniversityID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}

	ok, err := crypto.Verify(cert.CertificateHash, cert.DigitalSignature, publicKey)
	if err != nil {
		s.logger.WarnContext(ctx, "signature unverifiable",
			"certificate_number", cert.CertificateNumber,
			"error", err,
		)
		return false, nil
	}
	return ok, nil
}

func (s *Service) record(ctx context.Context, req Request, result *Result, cert *models.Certificate) {
	identifier := req.CertificateNumber
	if identifier == "" {
		identifier = req.VerificationCode
	}

	entry := &auditmodels.Entry{
		Identifier: identifier,
		Method:     result.Method,
		Result:     result.Valid,
		Reason:     result.Reason,
	}
	if cert != nil {
		id := cert.ID
		entry.CertificateID = &id
	}

	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append verification log",
			"identifier", identifier,
			"error", err,
		)
	}
}

// History returns the verification log entries for one certificate, oldest
// first.
func (s *Service) History(ctx context.Context, certificateNumber string) ([]*auditmodels.Entry, error) {
	cert, err := s.certificates.FindByNumber(ctx, strings.TrimSpace(certificateNumber))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate store unavailable")
	}
	return s.recorder.History(ctx, cert.ID)
}

// BulkEntry is one item of a bulk verification response. Items fail
// independently: a store failure on one item surfaces in its Error field
// without aborting the rest.
type BulkEntry struct {
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// VerifyBulk checks up to maxBulkConcurrency certificates in parallel.
// Entries come back in request order.
func (s *Service) VerifyBulk(ctx context.Context, reqs []Request) ([]BulkEntry, error) {
	if len(reqs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one verification request is required")
	}

	entries := make([]BulkEntry, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBulkConcurrency)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			result, err := s.Verify(ctx, req)
			if err != nil {
				entries[i] = BulkEntry{Error: err.Error()}
				return nil
			}
			entries[i] = BulkEntry{Result: result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
