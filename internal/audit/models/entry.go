package models

import (
	"time"

	"github.com/google/uuid"
)

// Method names how the verifier located the certificate.
const (
	MethodCertificateNumber = "certificate number"
	MethodVerificationCode  = "verification code"
)

// Entry is one append-only verification log record. CertificateID is nil
// when the lookup found no certificate; Identifier always keeps the raw
// value the verifier supplied.
type Entry struct {
	ID            uuid.UUID  `json:"logId"`
	CertificateID *uuid.UUID `json:"certificateId,omitempty"`
	Identifier    string     `json:"identifier"`
	VerifierIP    string     `json:"verifierIp,omitempty"`
	UserAgent     string     `json:"userAgent,omitempty"`
	Method        string     `json:"method"`
	Result        bool       `json:"result"`
	Reason        string     `json:"reason,omitempty"`
	VerifiedAt    time.Time  `json:"verifiedAt"`
}
