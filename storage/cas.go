// Package storage defines the content-addressable store the node persists
// rendered artifacts and attestation evidence into, plus composition helpers
// for replication and ordered fallback across backends.
package storage

import "github.com/ipfs/go-cid"

// CAS is the store every artifact backend implements.
//
// Contract:
// - Put MUST be idempotent: storing the same bytes twice yields the same CID.
// - Stored objects MUST be immutable; a CID never maps to different bytes.
// - CIDs MUST be derived from the stored bytes (cidutil.ArtifactCID).
// - Get MUST return ErrNotFound when the CID is absent.
//
// Backends never interpret the payload. An MP4 loop, a PNG poster, and an
// attestation document are all opaque blocks at this layer.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
