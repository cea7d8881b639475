package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"certverify/internal/certificate/canonical"
	dErrors "certverify/pkg/domain-errors"
)

// Status is the certificate lifecycle state.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// CanTransitionTo encodes the one-way lifecycle: active → revoked, nothing
// else. Revoked is terminal.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusActive && target == StatusRevoked
}

// MinRevocationReasonLen guards against unexplained revocations; the reason
// is shown to anyone verifying the certificate afterwards.
const MinRevocationReasonLen = 10

// Certificate is the aggregate root for an issued academic certificate.
//
// Invariants:
//   - payload fields (student, course, grade, dates) are immutable after
//     issuance; only Status and revocation metadata may change
//   - CertificateHash always equals the canonical hash of the payload fields
//   - DigitalSignature verifies against CertificateHash and the issuing
//     university's public key for the certificate to be authentic
//   - CertificateNumber and VerificationCode are unique across all
//     certificates; the store enforces both constraints
type Certificate struct {
	ID                uuid.UUID  `json:"certificateId"`
	CertificateNumber string     `json:"certificateNumber"`
	StudentID         string     `json:"studentId"`
	StudentName       string     `json:"studentName"`
	StudentEmail      string     `json:"studentEmail,omitempty"`
	UniversityID      string     `json:"universityId"`
	CourseName        string     `json:"courseName"`
	Specialization    string     `json:"specialization,omitempty"`
	Grade             string     `json:"grade"`
	CGPA              *float64   `json:"cgpa,omitempty"`
	IssueDate         time.Time  `json:"issueDate"`
	CompletionDate    *time.Time `json:"completionDate,omitempty"`

	CertificateHash  string `json:"certificateHash"`
	DigitalSignature string `json:"digitalSignature"`
	VerificationCode string `json:"verificationCode"`

	Status           Status     `json:"status"`
	RevocationReason string     `json:"revocationReason,omitempty"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
	RevokedBy        string     `json:"revokedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Certificate) IsActive() bool {
	return c.Status == StatusActive
}

// CanonicalPayload extracts the hashed payload fields.
func (c *Certificate) CanonicalPayload() canonical.Payload {
	return canonical.Payload{
		CertificateNumber: c.CertificateNumber,
		StudentID:         c.StudentID,
		StudentName:       c.StudentName,
		StudentEmail:      c.StudentEmail,
		UniversityID:      c.UniversityID,
		CourseName:        c.CourseName,
		Specialization:    c.Specialization,
		Grade:             c.Grade,
		CGPA:              c.CGPA,
		IssueDate:         c.IssueDate,
		CompletionDate:    c.CompletionDate,
	}
}

// ComputeHash re-derives the content hash from the stored payload fields.
// Verification compares this against CertificateHash to detect tampering.
func (c *Certificate) ComputeHash() string {
	return canonical.Hash(c.CanonicalPayload())
}

// CanRevoke checks whether the certificate may transition to revoked.
// Use with ApplyRevocation inside the store's atomic update.
func (c *Certificate) CanRevoke() error {
	if !c.Status.CanTransitionTo(StatusRevoked) {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate is already revoked")
	}
	return nil
}

// ApplyRevocation transitions the certificate to revoked. Payload fields,
// hash, and signature are untouched so the record stays auditable.
func (c *Certificate) ApplyRevocation(reason, actor string, now time.Time) {
	c.Status = StatusRevoked
	c.RevocationReason = reason
	c.RevokedBy = actor
	c.RevokedAt = &now
	c.UpdatedAt = now
}

// ValidateRevocationReason enforces the minimum reason length.
func ValidateRevocationReason(reason string) error {
	if len(strings.TrimSpace(reason)) < MinRevocationReasonLen {
		return dErrors.New(dErrors.CodeValidation, "revocation reason must be at least 10 characters")
	}
	return nil
}

// NewCertificate validates the issuance fields, assigns identity, and
// computes the content hash. Signature and verification code are filled in
// by the issuance workflow afterwards.
func NewCertificate(number string, fields IssueFields, now time.Time) (*Certificate, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	cert := &Certificate{
		ID:                uuid.New(),
		CertificateNumber: number,
		StudentID:         fields.StudentID,
		StudentName:       fields.StudentName,
		StudentEmail:      fields.StudentEmail,
		UniversityID:      fields.UniversityID,
		CourseName:        fields.CourseName,
		Specialization:    fields.Specialization,
		Grade:             fields.Grade,
		CGPA:              fields.CGPA,
		IssueDate:         fields.IssueDate,
		CompletionDate:    fields.CompletionDate,
		Status:            StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	cert.CertificateHash = cert.ComputeHash()
	return cert, nil
}

// IssueFields are the caller-supplied certificate fields.
type IssueFields struct {
	StudentID      string
	StudentName    string
	StudentEmail   string
	UniversityID   string
	CourseName     string
	Specialization string
	Grade          string
	CGPA           *float64
	IssueDate      time.Time
	CompletionDate *time.Time
}

// Validate checks required fields and ranges.
func (f IssueFields) Validate() error {
	switch {
	case strings.TrimSpace(f.StudentName) == "":
		return dErrors.New(dErrors.CodeValidation, "studentName is required")
	case strings.TrimSpace(f.CourseName) == "":
		return dErrors.New(dErrors.CodeValidation, "courseName is required")
	case strings.TrimSpace(f.Grade) == "":
		return dErrors.New(dErrors.CodeValidation, "grade is required")
	case f.IssueDate.IsZero():
		return dErrors.New(dErrors.CodeValidation, "issueDate is required")
	}
	if f.CGPA != nil && (*f.CGPA < 0 || *f.CGPA > 10) {
		return dErrors.New(dErrors.CodeValidation, "cgpa must be between 0 and 10")
	}
	return nil
}
