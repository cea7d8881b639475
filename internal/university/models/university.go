package models

import (
	"strings"
	"time"

	dErrors "certverify/pkg/domain-errors"
)

// University is the issuer aggregate.
//
// Invariants:
//   - a university may issue certificates only while Verified is true
//   - PrivateKey never leaves the university service boundary; it is
//     excluded from JSON and only reachable through the SigningKey port
type University struct {
	ID      string `json:"universityId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`

	PublicKey    string `json:"publicKey"`
	PrivateKey   string `json:"-"`
	PasswordHash string `json:"-"`

	Verified bool `json:"verified"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplyVerification flips the issuance gate. Both directions are allowed:
// an admin can suspend a misbehaving issuer by unverifying it.
func (u *University) ApplyVerification(verified bool, now time.Time) {
	u.Verified = verified
	u.UpdatedAt = now
}

// RegisterFields are the caller-supplied registration fields.
type RegisterFields struct {
	ID       string
	Name     string
	Email    string
	Address  string
	Phone    string
	Password string
}

// Validate checks required registration fields.
func (f RegisterFields) Validate() error {
	switch {
	case strings.TrimSpace(f.ID) == "":
		return dErrors.New(dErrors.CodeValidation, "universityId is required")
	case strings.TrimSpace(f.Name) == "":
		return dErrors.New(dErrors.CodeValidation, "name is required")
	case strings.TrimSpace(f.Email) == "" || !strings.Contains(f.Email, "@"):
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	return nil
}
