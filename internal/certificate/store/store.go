// Package store persists certificate records. Two implementations share the
// same semantics: InMemory for development and tests, Postgres for
// production. Both enforce uniqueness of certificate numbers and
// verification codes and implement revocation as an atomic conditional
// transition so concurrent revokes cannot both succeed.
package store

import (
	"fmt"

	"certverify/pkg/platform/sentinel"
)

// Duplicate-key errors. Both wrap sentinel.ErrAlreadyUsed; the issuance
// workflow retries only on ErrDuplicateCode (a fresh code may help) and
// aborts on ErrDuplicateNumber.
var (
	ErrDuplicateNumber = fmt.Errorf("certificate number %w", sentinel.ErrAlreadyUsed)
	ErrDuplicateCode   = fmt.Errorf("verification code %w", sentinel.ErrAlreadyUsed)
)

// Filter narrows certificate listings. Zero values mean "any".
type Filter struct {
	StudentEmail string
	Status       string
}
