package attest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"lumen.art/node/canon"
	"lumen.art/node/model"
)

// Mismatch reports one field whose recomputed hash differs from the
// caller-supplied value.
type Mismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Computed string `json:"computed"`
}

// Result is the outcome of bundle verification. On structural failure Errors
// lists every violated constraint; on hash failure Mismatches lists every
// differing field. Hashes are only recomputed when the structure is valid.
type Result struct {
	Valid           bool       `json:"valid"`
	BundleType      string     `json:"bundleType,omitempty"`
	Errors          []string   `json:"errors,omitempty"`
	Mismatches      []Mismatch `json:"mismatches,omitempty"`
	CertificateHash string     `json:"certificateHash,omitempty"`
	InputHash       string     `json:"inputHash,omitempty"`
}

// VerifyBundle dispatches on the bundle's kind tag. It is a pure function of
// the bundle: no clock, no storage, no network.
func VerifyBundle(b Bundle) Result {
	switch b.Kind() {
	case KindAIExecutionCER:
		return verifyCER(b)
	default:
		return verifyCodeMode(b)
	}
}

// verifyCodeMode checks a caller-built execution bundle carrying raw 64-hex
// inputHash and certificateHash values, recomputing both from the bundle's
// own snapshot.
func verifyCodeMode(b Bundle) Result {
	res := Result{BundleType: KindCodeMode}

	bundleType, ok := stringField(b, "bundleType")
	if !ok {
		res.Errors = append(res.Errors, "bundleType: required string")
	}
	if _, present := b["version"]; !present {
		res.Errors = append(res.Errors, "version: required")
	}
	createdAt, ok := stringField(b, "createdAt")
	if !ok {
		res.Errors = append(res.Errors, "createdAt: required string")
	}
	inputHash, ok := stringField(b, "inputHash")
	if !ok || !isHex64(inputHash) {
		res.Errors = append(res.Errors, "inputHash: required 64-hex string")
	}
	certHash, ok := stringField(b, "certificateHash")
	if !ok || !isHex64(certHash) {
		res.Errors = append(res.Errors, "certificateHash: required 64-hex string")
	}

	snapshot, ok := objectField(b, "snapshot")
	if !ok {
		res.Errors = append(res.Errors, "snapshot: required object")
	} else {
		res.Errors = append(res.Errors, validateSnapshot(snapshot)...)
	}

	// Structural failures short-circuit: no hash is recomputed from a
	// malformed bundle.
	if len(res.Errors) > 0 {
		return res
	}

	computedInput, err := ComputeBundleInputHash(snapshot)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("snapshot: %v", err))
		return res
	}
	computedCert, err := ComputeCertificateHash(bundleType, createdAt, snapshot, b["version"])
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("certificate scope: %v", err))
		return res
	}

	if computedInput != inputHash {
		res.Mismatches = append(res.Mismatches, Mismatch{Field: "inputHash", Expected: inputHash, Computed: computedInput})
	}
	if computedCert != certHash {
		res.Mismatches = append(res.Mismatches, Mismatch{Field: "certificateHash", Expected: certHash, Computed: computedCert})
	}

	res.InputHash = computedInput
	res.CertificateHash = computedCert
	res.Valid = len(res.Mismatches) == 0
	return res
}

// verifyCER checks an AI-execution CER bundle: constant type tag, version,
// ISO 8601 createdAt, snapshot object, and sha256:-prefixed hashes. Fails
// closed on any certificate mismatch.
func verifyCER(b Bundle) Result {
	res := Result{BundleType: KindAIExecutionCER}

	if bt, _ := stringField(b, "bundleType"); bt != KindAIExecutionCER {
		res.Errors = append(res.Errors, fmt.Sprintf("bundleType: must be %q", KindAIExecutionCER))
	}
	if _, present := b["version"]; !present {
		res.Errors = append(res.Errors, "version: required")
	}
	createdAt, ok := stringField(b, "createdAt")
	if !ok {
		res.Errors = append(res.Errors, "createdAt: required string")
	} else if _, err := time.Parse(time.RFC3339, createdAt); err != nil {
		res.Errors = append(res.Errors, "createdAt: must be ISO 8601")
	}
	snapshot, hasSnap := objectField(b, "snapshot")
	if !hasSnap {
		res.Errors = append(res.Errors, "snapshot: required object")
	}
	certHash, ok := stringField(b, "certificateHash")
	if !ok || !isPrefixedHash(certHash) {
		res.Errors = append(res.Errors, "certificateHash: required sha256:<64 hex> string")
	}

	if len(res.Errors) > 0 {
		return res
	}

	computedCert, err := ComputeCertificateHash(KindAIExecutionCER, createdAt, snapshot, b["version"])
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("certificate scope: %v", err))
		return res
	}
	prefixed := "sha256:" + computedCert
	if prefixed != certHash {
		res.Mismatches = append(res.Mismatches, Mismatch{Field: "certificateHash", Expected: certHash, Computed: prefixed})
	}

	// Inner hash pairs travel inside the CER snapshot; verify each pair that
	// is present.
	for _, pair := range [][2]string{{"input", "inputHash"}, {"output", "outputHash"}} {
		value, hasValue := snapshot[pair[0]]
		declared, hasHash := stringField(snapshot, pair[1])
		if !hasValue || !hasHash {
			continue
		}
		if !isPrefixedHash(declared) {
			res.Errors = append(res.Errors, fmt.Sprintf("snapshot.%s: must be sha256:<64 hex>", pair[1]))
			continue
		}
		computed, err := canon.HashValue(value)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("snapshot.%s: %v", pair[0], err))
			continue
		}
		if got := "sha256:" + computed; got != declared {
			res.Mismatches = append(res.Mismatches, Mismatch{Field: "snapshot." + pair[1], Expected: declared, Computed: got})
		}
	}
	if len(res.Errors) > 0 {
		res.Mismatches = nil
		return res
	}

	res.CertificateHash = computedCert
	res.Valid = len(res.Mismatches) == 0
	return res
}

// validateSnapshot applies the strict bundle-side snapshot rules. This is
// deliberately not the lenient normalization used on the execution path: a
// bundle asserting an execution must carry the vector exactly as executed.
func validateSnapshot(snap map[string]any) []string {
	var errs []string
	if _, ok := snap["code"].(string); !ok {
		errs = append(errs, "snapshot.code: required string")
	}
	switch snap["seed"].(type) {
	case string, float64:
	default:
		errs = append(errs, "snapshot.seed: required number or string")
	}
	vars, ok := snap["vars"].([]any)
	if !ok {
		errs = append(errs, "snapshot.vars: required array")
		return errs
	}
	if len(vars) != model.VarSlots {
		errs = append(errs, fmt.Sprintf("snapshot.vars: must have exactly %d entries", model.VarSlots))
	}
	for i, v := range vars {
		f, ok := v.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, fmt.Sprintf("snapshot.vars[%d]: must be a finite number", i))
			continue
		}
		if f < 0 || f > 100 {
			errs = append(errs, fmt.Sprintf("snapshot.vars[%d]: out of range [0,100]", i))
		}
	}
	if mode, ok := snap["mode"].(string); ok && mode != string(model.ModeStatic) && mode != string(model.ModeLoop) {
		errs = append(errs, "snapshot.mode: must be static or loop")
	}
	return errs
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func isPrefixedHash(s string) bool {
	return strings.HasPrefix(s, "sha256:") && isHex64(strings.TrimPrefix(s, "sha256:"))
}
