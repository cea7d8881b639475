package handler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"certverify/internal/audit"
	auditstore "certverify/internal/audit/store"
	"certverify/internal/certificate/handler"
	"certverify/internal/certificate/models"
	"certverify/internal/certificate/service"
	"certverify/internal/certificate/store"
	"certverify/internal/crypto"
	"certverify/internal/platform/middleware"
	verifyhandler "certverify/internal/verification/handler"
	verifyservice "certverify/internal/verification/service"
	"certverify/pkg/testutil"
)

const signingKey = "test-signing-key"

type fakeDirectory struct {
	verified map[string]bool
	keys     map[string]string
}

func (f *fakeDirectory) IsVerified(ctx context.Context, universityID string) (bool, error) {
	return f.verified[universityID], nil
}

func (f *fakeDirectory) SigningKey(ctx context.Context, universityID string) (string, error) {
	return f.keys[universityID], nil
}

func newRouter(t *testing.T) chi.Router {
	t.Helper()

	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	directory := &fakeDirectory{
		verified: map[string]bool{"mit": true},
		keys:     map[string]string{"mit": keys.PrivateKey},
	}
	certificates := store.NewInMemory()
	svc := service.New(certificates, directory, slog.New(slog.NewTextHandler(io.Discard, nil)))

	recorder := audit.NewRecorder(auditstore.NewInMemory(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	verifySvc := verifyservice.New(certificates, &staticIssuers{publicKey: keys.PublicKey}, recorder, slog.New(slog.NewTextHandler(io.Discard, nil)), verifyservice.Options{})

	h := handler.New(svc, verifySvc, middleware.NewTokenValidator(signingKey), slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	verifyhandler.New(verifySvc).Register(r)
	return r
}

type staticIssuers struct {
	publicKey string
}

func (s *staticIssuers) PublicKey(ctx context.Context, universityID string) (string, error) {
	return s.publicKey, nil
}

func (s *staticIssuers) IssuerName(ctx context.Context, universityID string) (string, error) {
	return "MIT", nil
}

func signToken(t *testing.T, role, universityID string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID:       "user-1",
		Role:         role,
		UniversityID: universityID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	require.NoError(t, err)
	return signed
}

func issueBody() map[string]any {
	return map[string]any{
		"studentId":    "s-100",
		"studentName":  "Ada Lovelace",
		"studentEmail": "ada@example.edu",
		"courseName":   "Computer Science",
		"grade":        "A",
		"issueDate":    "2026-06-15T00:00:00Z",
	}
}

func issueCertificate(t *testing.T, r chi.Router) *models.Certificate {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/certificates", issueBody())
	req.Header.Set("Authorization", "Bearer "+signToken(t, "university", "mit"))
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.Certificate](t, rr)
}

func TestIssueEndpoint(t *testing.T) {
	r := newRouter(t)

	cert := issueCertificate(t, r)
	require.Equal(t, "mit", cert.UniversityID)
	require.Regexp(t, `^CERT-\d{4}-[0-9A-F]{8}$`, cert.CertificateNumber)
	require.Regexp(t, `^[A-Z0-9]{8}$`, cert.VerificationCode)
	require.Equal(t, models.StatusActive, cert.Status)
}

func TestIssueRequiresUniversityRole(t *testing.T) {
	r := newRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/certificates", issueBody())
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/certificates", issueBody())
	req.Header.Set("Authorization", "Bearer "+signToken(t, "employer", ""))
	rr = testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestIssueRequiresUniversityBinding(t *testing.T) {
	r := newRouter(t)

	// A university role token without a university binding cannot issue.
	req := testutil.NewJSONRequest(t, http.MethodPost, "/certificates", issueBody())
	req.Header.Set("Authorization", "Bearer "+signToken(t, "university", ""))
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestGetAndListEndpoints(t *testing.T) {
	r := newRouter(t)
	cert := issueCertificate(t, r)

	token := signToken(t, "university", "mit")

	req := testutil.NewJSONRequest(t, http.MethodGet, "/certificates/"+cert.CertificateNumber, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	req = testutil.NewJSONRequest(t, http.MethodGet, "/certificates?studentEmail=ada@example.edu&status=active", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	certs := testutil.UnmarshalResponse[[]models.Certificate](t, rr)
	require.Len(t, *certs, 1)

	req = testutil.NewJSONRequest(t, http.MethodGet, "/certificates?studentEmail=nobody@example.edu", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	certs = testutil.UnmarshalResponse[[]models.Certificate](t, rr)
	require.Empty(t, *certs)
}

func TestRevokeEndpoint(t *testing.T) {
	r := newRouter(t)
	cert := issueCertificate(t, r)

	body := map[string]string{"reason": "issued to the wrong student"}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/certificates/"+cert.CertificateNumber+"/revoke", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin", ""))
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	revoked := testutil.UnmarshalResponse[models.Certificate](t, rr)
	require.Equal(t, models.StatusRevoked, revoked.Status)
	require.Equal(t, "user-1", revoked.RevokedBy)

	// Revoking again conflicts.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/certificates/"+cert.CertificateNumber+"/revoke", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin", ""))
	rr = testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestVerificationHistoryEndpoint(t *testing.T) {
	r := newRouter(t)
	cert := issueCertificate(t, r)

	// Two public verifications, then read the history back as the issuer.
	for i := 0; i < 2; i++ {
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/verify", map[string]string{
			"certificateNumber": cert.CertificateNumber,
		}))
		testutil.AssertStatus(t, rr, http.StatusOK)
	}

	req := testutil.NewJSONRequest(t, http.MethodGet, "/certificates/"+cert.CertificateNumber+"/verifications", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "university", "mit"))
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	entries := testutil.UnmarshalResponse[[]map[string]any](t, rr)
	require.Len(t, *entries, 2)

	// History is issuer-facing, never public.
	rr = testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/certificates/"+cert.CertificateNumber+"/verifications", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRevokeReasonTooShort(t *testing.T) {
	r := newRouter(t)
	cert := issueCertificate(t, r)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/certificates/"+cert.CertificateNumber+"/revoke", map[string]string{"reason": "short"})
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin", ""))
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
