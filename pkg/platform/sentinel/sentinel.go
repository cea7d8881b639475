package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: certificate or university does not exist in the store
//   - ErrAlreadyUsed: a unique value (verification code, certificate number,
//     university email) is already taken
//   - ErrInvalidState: entity in wrong state for the operation, e.g. revoking
//     a certificate that is not active
//   - ErrUnavailable: store or cache temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
