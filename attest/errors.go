package attest

import "errors"

var (
	// ErrInvalidBundle means the bundle violated structural constraints.
	// Verification reports every violated constraint, not just the first.
	ErrInvalidBundle = errors.New("attest: invalid bundle")

	// ErrHashMismatch means a recomputed hash differed from a caller-supplied
	// one. Every mismatching field is reported with expected and computed
	// values.
	ErrHashMismatch = errors.New("attest: hash mismatch")
)
