package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "certverify/pkg/domain-errors"
)

func validFields() IssueFields {
	cgpa := 8.5
	return IssueFields{
		StudentID:    "STU-2025-001",
		StudentName:  "Jane Doe",
		StudentEmail: "jane.doe@example.edu",
		UniversityID: "UNI-2025-001",
		CourseName:   "BSc Computer Science",
		Grade:        "A",
		CGPA:         &cgpa,
		IssueDate:    time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewCertificate(t *testing.T) {
	now := time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC)
	cert, err := NewCertificate("CERT-2025-A1B2C3D4", validFields(), now)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, cert.Status)
	assert.NotEmpty(t, cert.CertificateHash)
	assert.Equal(t, cert.ComputeHash(), cert.CertificateHash, "stored hash must match canonical hash at creation")
	assert.Equal(t, now, cert.CreatedAt)
}

func TestNewCertificateValidation(t *testing.T) {
	now := time.Now()

	cases := map[string]func(*IssueFields){
		"missing studentName": func(f *IssueFields) { f.StudentName = "  " },
		"missing courseName":  func(f *IssueFields) { f.CourseName = "" },
		"missing grade":       func(f *IssueFields) { f.Grade = "" },
		"missing issueDate":   func(f *IssueFields) { f.IssueDate = time.Time{} },
		"cgpa above range":    func(f *IssueFields) { v := 10.5; f.CGPA = &v },
		"cgpa below range":    func(f *IssueFields) { v := -0.1; f.CGPA = &v },
	}
	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			fields := validFields()
			corrupt(&fields)
			_, err := NewCertificate("CERT-2025-XXXXXXXX", fields, now)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestCGPABoundsInclusive(t *testing.T) {
	for _, v := range []float64{0, 10} {
		fields := validFields()
		fields.CGPA = &v
		_, err := NewCertificate("CERT-2025-XXXXXXXX", fields, time.Now())
		assert.NoError(t, err, "cgpa %v is within [0, 10]", v)
	}
}

func TestRevocationIsOneWay(t *testing.T) {
	now := time.Now().UTC()
	cert, err := NewCertificate("CERT-2025-A1B2C3D4", validFields(), now)
	require.NoError(t, err)

	require.NoError(t, cert.CanRevoke())
	hashBefore := cert.CertificateHash

	revokedAt := now.Add(time.Hour)
	cert.ApplyRevocation("Academic misconduct confirmed", "UNI-2025-001", revokedAt)

	assert.Equal(t, StatusRevoked, cert.Status)
	assert.Equal(t, "Academic misconduct confirmed", cert.RevocationReason)
	require.NotNil(t, cert.RevokedAt)
	assert.Equal(t, revokedAt, *cert.RevokedAt)
	assert.Equal(t, hashBefore, cert.CertificateHash, "revocation must not disturb the hash")

	err = cert.CanRevoke()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestValidateRevocationReason(t *testing.T) {
	assert.Error(t, ValidateRevocationReason("too short"))
	assert.Error(t, ValidateRevocationReason("         x         "))
	assert.NoError(t, ValidateRevocationReason("Academic misconduct confirmed"))
}
