package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/internal/certificate/models"
	"certverify/internal/certificate/store"
	"certverify/internal/crypto"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/requestcontext"
)

// fakeDirectory implements IssuerDirectory for a single university.
type fakeDirectory struct {
	id       string
	verified bool
	keys     *crypto.KeyPair
	keyErr   error
}

func (d *fakeDirectory) IsVerified(ctx context.Context, universityID string) (bool, error) {
	if universityID != d.id {
		return false, errors.New("unexpected university id")
	}
	return d.verified, nil
}

func (d *fakeDirectory) SigningKey(ctx context.Context, universityID string) (string, error) {
	if d.keyErr != nil {
		return "", d.keyErr
	}
	return d.keys.PrivateKey, nil
}

type recordingNotifier struct {
	issued  []string
	revoked []string
}

func (n *recordingNotifier) CertificateIssued(ctx context.Context, cert *models.Certificate) error {
	n.issued = append(n.issued, cert.CertificateNumber)
	return nil
}

func (n *recordingNotifier) CertificateRevoked(ctx context.Context, cert *models.Certificate, reason string) error {
	n.revoked = append(n.revoked, cert.CertificateNumber)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, verified bool) (*Service, *store.InMemory, *fakeDirectory, *recordingNotifier) {
	t.Helper()
	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	certs := store.NewInMemory()
	dir := &fakeDirectory{id: "UNI-2025-001", verified: verified, keys: keys}
	notifier := &recordingNotifier{}
	svc := New(certs, dir, testLogger(), WithNotifier(notifier))
	return svc, certs, dir, notifier
}

func issueFields() models.IssueFields {
	return models.IssueFields{
		StudentID:    "STU-2025-001",
		StudentName:  "Jane Doe",
		StudentEmail: "jane.doe@example.edu",
		UniversityID: "UNI-2025-001",
		CourseName:   "BSc Computer Science",
		Grade:        "A",
		IssueDate:    time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestIssueFromVerifiedUniversity(t *testing.T) {
	svc, _, dir, notifier := newTestService(t, true)

	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC))
	cert, err := svc.Issue(ctx, issueFields())
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, cert.Status)
	assert.Regexp(t, regexp.MustCompile(`^CERT-2025-[0-9A-F]{8}$`), cert.CertificateNumber)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), cert.VerificationCode)
	assert.Equal(t, cert.ComputeHash(), cert.CertificateHash)

	ok, err := crypto.Verify(cert.CertificateHash, cert.DigitalSignature, dir.keys.PublicKey)
	require.NoError(t, err)
	assert.True(t, ok, "signature must verify against the issuer's public key right after issuance")

	assert.Equal(t, []string{cert.CertificateNumber}, notifier.issued)
}

func TestIssueRejectsUnverifiedUniversity(t *testing.T) {
	svc, certs, _, _ := newTestService(t, false)

	_, err := svc.Issue(context.Background(), issueFields())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	// Fail-fast: nothing persisted.
	all, err := certs.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestIssueValidationFailureWritesNothing(t *testing.T) {
	svc, certs, _, _ := newTestService(t, true)

	fields := issueFields()
	fields.Grade = ""
	_, err := svc.Issue(context.Background(), fields)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	all, err := certs.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestIssueSigningFailureAborts(t *testing.T) {
	svc, certs, dir, _ := newTestService(t, true)
	dir.keys = &crypto.KeyPair{PrivateKey: "garbage"}

	_, err := svc.Issue(context.Background(), issueFields())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	all, err := certs.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

// collidingStore forces verification-code conflicts a set number of times.
type collidingStore struct {
	CertificateStore
	conflicts int
	creates   int
}

func (c *collidingStore) Create(ctx context.Context, cert *models.Certificate) error {
	c.creates++
	if c.creates <= c.conflicts {
		return store.ErrDuplicateCode
	}
	return c.CertificateStore.Create(ctx, cert)
}

func TestIssueRetriesOnCodeCollision(t *testing.T) {
	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	dir := &fakeDirectory{id: "UNI-2025-001", verified: true, keys: keys}

	colliding := &collidingStore{CertificateStore: store.NewInMemory(), conflicts: 2}
	svc := New(colliding, dir, testLogger())

	cert, err := svc.Issue(context.Background(), issueFields())
	require.NoError(t, err)
	assert.Equal(t, 3, colliding.creates, "two conflicts then one success")
	assert.NotEmpty(t, cert.VerificationCode)
}

func TestIssueExhaustsCodeRetries(t *testing.T) {
	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	dir := &fakeDirectory{id: "UNI-2025-001", verified: true, keys: keys}

	colliding := &collidingStore{CertificateStore: store.NewInMemory(), conflicts: 100}
	svc := New(colliding, dir, testLogger())

	_, err = svc.Issue(context.Background(), issueFields())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Equal(t, 5, colliding.creates, "retry loop is bounded")
}

func TestRevokeLifecycle(t *testing.T) {
	svc, _, _, notifier := newTestService(t, true)

	cert, err := svc.Issue(context.Background(), issueFields())
	require.NoError(t, err)

	revoked, err := svc.Revoke(context.Background(), cert.CertificateNumber, "Academic misconduct confirmed", "UNI-2025-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevoked, revoked.Status)
	assert.Equal(t, "Academic misconduct confirmed", revoked.RevocationReason)
	assert.NotNil(t, revoked.RevokedAt)
	assert.Equal(t, []string{cert.CertificateNumber}, notifier.revoked)

	// Second revoke is rejected, not silently accepted.
	_, err = svc.Revoke(context.Background(), cert.CertificateNumber, "Academic misconduct confirmed", "UNI-2025-001")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRevokeValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t, true)

	_, err := svc.Revoke(context.Background(), "CERT-2025-A1B2C3D4", "short", "UNI-2025-001")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Revoke(context.Background(), "CERT-0000-XXXX", "Academic misconduct confirmed", "UNI-2025-001")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUniqueCodesAcrossManyIssues(t *testing.T) {
	svc, _, _, _ := newTestService(t, true)

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		cert, err := svc.Issue(context.Background(), issueFields())
		require.NoError(t, err)
		if _, dup := seen[cert.VerificationCode]; dup {
			t.Fatalf("duplicate verification code %q", cert.VerificationCode)
		}
		seen[cert.VerificationCode] = struct{}{}
	}
}
