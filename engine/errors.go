package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"lumen.art/node/attest"
)

// VerificationError carries the full verdict of a failed bundle
// verification, so callers see every violated constraint and hash mismatch,
// not only the first.
type VerificationError struct {
	Result attest.Result
}

func (e *VerificationError) Error() string {
	var parts []string
	parts = append(parts, e.Result.Errors...)
	for _, m := range e.Result.Mismatches {
		parts = append(parts, fmt.Sprintf("%s mismatch (expected %s, computed %s)", m.Field, m.Expected, m.Computed))
	}
	if len(parts) == 0 {
		return "engine: bundle verification failed"
	}
	return "engine: bundle verification failed: " + strings.Join(parts, "; ")
}

// attestationDocument is the stored form of an attestation: plain JSON of
// the full record, signature included. The attestation hash is recomputed
// from the protocol fields, so the document encoding need not be canonical.
func attestationDocument(a *attest.Attestation) ([]byte, error) {
	return json.Marshal(a)
}
