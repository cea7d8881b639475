// Package code generates verification codes: short public tokens that look
// up a certificate without exposing its internal ID.
package code

import (
	"crypto/rand"

	dErrors "certverify/pkg/domain-errors"
)

// Length is fixed at 8. With a 36-symbol alphabet the keyspace is 36^8
// (~2.8e12), so collisions are effectively unreachable; the store still
// enforces uniqueness and the issuance workflow retries on conflict.
const Length = 8

// MaxAttempts bounds the regenerate-on-collision loop during issuance.
const MaxAttempts = 5

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate returns a new random verification code.
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "random source failed")
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

// ErrExhausted is returned by the issuance workflow when MaxAttempts fresh
// codes all collided. Treated as fatal: it indicates either a failing random
// source or a practically full keyspace, both operator problems.
var ErrExhausted = dErrors.New(dErrors.CodeInternal, "verification code generation exhausted retries")
