package attest

import (
	"time"

	"github.com/google/uuid"

	"lumen.art/node/canon"
)

// NodeIdentity names the runtime producing attestations. Its runtime hash is
// what binds every attestation to one specific node build.
type NodeIdentity struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Platform  string `json:"platform"`
	PublicKey string `json:"publicKey,omitempty"`
}

// RuntimeHash is sha256(canon(identity fields)).
func (n NodeIdentity) RuntimeHash() (string, error) {
	fields := map[string]any{
		"name":     n.Name,
		"version":  n.Version,
		"platform": n.Platform,
	}
	if n.PublicKey != "" {
		fields["publicKey"] = n.PublicKey
	}
	return canon.HashValue(fields)
}

// Attestation is this node's statement that a bundle's hashes were
// independently recomputed and matched. One logical record exists per
// certificate hash; the ledger enforces the idempotency.
type Attestation struct {
	AttestedAt      string   `json:"attestedAt"`
	AttestationID   string   `json:"attestationId"`
	BundleType      string   `json:"bundleType"`
	CertificateHash string   `json:"certificateHash"`
	NodeRuntimeHash string   `json:"nodeRuntimeHash"`
	ProtocolVersion string   `json:"protocolVersion"`
	Verified        bool     `json:"verified"`
	Checks          []string `json:"checks"`
	Signature       string   `json:"signature,omitempty"`
}

// New builds an attestation for a successful verification result. Callers
// must not attest failed results.
func New(res Result, node NodeIdentity, now time.Time) (*Attestation, error) {
	runtimeHash, err := node.RuntimeHash()
	if err != nil {
		return nil, err
	}
	checks := []string{"certificateHash"}
	if res.InputHash != "" {
		checks = append(checks, "inputHash")
	}
	return &Attestation{
		AttestedAt:      now.UTC().Format(time.RFC3339),
		AttestationID:   uuid.NewString(),
		BundleType:      res.BundleType,
		CertificateHash: res.CertificateHash,
		NodeRuntimeHash: runtimeHash,
		ProtocolVersion: ProtocolVersion,
		Verified:        res.Valid,
		Checks:          checks,
	}, nil
}

// Hash is the attestation hash role: sha256(canon({attestedAt,
// certificateHash, nodeRuntimeHash, protocolVersion})). The id, checks, and
// signature stay outside the scope so the hash is reproducible from the
// protocol fields alone.
func (a *Attestation) Hash() (string, error) {
	return canon.HashValue(a.hashScope())
}

func (a *Attestation) hashScope() map[string]any {
	return map[string]any{
		"attestedAt":      a.AttestedAt,
		"certificateHash": a.CertificateHash,
		"nodeRuntimeHash": a.NodeRuntimeHash,
		"protocolVersion": a.ProtocolVersion,
	}
}
