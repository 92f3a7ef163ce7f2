// Package attest implements the hash-chain and attestation protocol: the
// four hash roles over canonical bytes, bundle verification, and the attestation
// records binding verified certificates to this node's identity.
package attest

import (
	"lumen.art/node/canon"
	"lumen.art/node/model"
)

// ProtocolVersion names the active protocol revision. Changing any bundle
// schema or hash construction bumps this, never a patch release.
const ProtocolVersion = "glyph.protocol.v1"

// Bundle type tags. KindCodeMode covers caller-built execution bundles with
// raw hex hashes; KindAIExecutionCER covers AI-execution CER bundles with
// sha256:-prefixed hashes.
const (
	KindCodeMode       = "codemode.execution.v1"
	KindAIExecutionCER = "cer.ai.execution.v1"
)

// ComputeInputHash hashes the execution input: sha256(canon({code, seed,
// vars})). Vars pass through the lenient normalization so that an input hash
// always refers to the vector the engine actually executed.
func ComputeInputHash(snap model.Snapshot) (string, error) {
	return canon.HashValue(map[string]any{
		"code": snap.Code,
		"seed": snap.Seed,
		"vars": model.NormalizedVarsSlice(snap.Vars),
	})
}

// ComputeBundleInputHash hashes the input scope of a bundle snapshot exactly
// as given: sha256(canon({code, seed, vars})). No normalization is applied;
// bundle snapshots are strict.
func ComputeBundleInputHash(snapshot map[string]any) (string, error) {
	return canon.HashValue(map[string]any{
		"code": snapshot["code"],
		"seed": snapshot["seed"],
		"vars": snapshot["vars"],
	})
}

// ComputeCertificateHash hashes the certificate scope: sha256(canon({
// bundleType, createdAt, snapshot, version})). The snapshot value is hashed
// exactly as given; callers own its shape.
func ComputeCertificateHash(bundleType, createdAt string, snapshot any, version any) (string, error) {
	return canon.HashValue(map[string]any{
		"bundleType": bundleType,
		"createdAt":  createdAt,
		"snapshot":   snapshot,
		"version":    version,
	})
}

// ComputeOutputHash hashes an execution output value.
func ComputeOutputHash(output any) (string, error) {
	return canon.HashValue(output)
}

// SnapshotValue is the canonical value form of a snapshot, used when this
// node builds bundles for its own executions.
func SnapshotValue(snap model.Snapshot) map[string]any {
	v := map[string]any{
		"code": snap.Code,
		"seed": snap.Seed,
		"vars": model.NormalizedVarsSlice(snap.Vars),
		"mode": string(snap.Mode),
	}
	if snap.Mode == model.ModeLoop {
		v["totalFrames"] = snap.TotalFrames
		v["fps"] = snap.FPS
	}
	return v
}
