// Package keys manages the node's signing identity.
//
// A node is identified by an Ed25519 key whose public half is encoded as
// "ed25519:" + base64(pubkey); this string is what appears in attestations
// and what remote verifiers check signatures against. Seeds live on the
// local filesystem under 0600 files. Purpose-specific subkeys (for example
// "attest") are derived deterministically from the root seed, so a node can
// be rebuilt from a single backed-up seed.
package keys
