package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"lumen.art/node/canon"
)

// Attestation signatures are advisory metadata on top of the hash chain:
// verification never depends on them, but a signed attestation lets a remote
// ledger authenticate which node produced it.
//
// Encodings follow alg:<base64>, with ed25519 and dilithium3 supported.

var ErrBadSignature = errors.New("attest: signature did not verify")

func signatureDigest(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "", "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("attest: unsupported hash alg %q", hashAlg)
	}
}

// signScope returns the canonical bytes a signature covers: the same fields
// as the attestation hash.
func (a *Attestation) signScope() ([]byte, error) {
	return canon.Canon(a.hashScope())
}

// SignEd25519 signs the attestation scope and stores an ed25519:<base64>
// signature.
func (a *Attestation) SignEd25519(priv ed25519.PrivateKey, hashAlg string) error {
	if len(priv) != ed25519.PrivateKeySize {
		return errors.New("attest: invalid ed25519 private key length")
	}
	scope, err := a.signScope()
	if err != nil {
		return err
	}
	digest, err := signatureDigest(hashAlg, scope)
	if err != nil {
		return err
	}
	sig := ed25519.Sign(priv, digest)
	a.Signature = "ed25519:" + base64.StdEncoding.EncodeToString(sig)
	return nil
}

// SignDilithium3 signs the attestation scope with the post-quantum scheme
// and stores a dilithium3:<base64> signature.
func (a *Attestation) SignDilithium3(priv *mode3.PrivateKey, hashAlg string) error {
	scope, err := a.signScope()
	if err != nil {
		return err
	}
	digest, err := signatureDigest(hashAlg, scope)
	if err != nil {
		return err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(priv, digest, sig)
	a.Signature = "dilithium3:" + base64.StdEncoding.EncodeToString(sig)
	return nil
}

// VerifySignature checks the stored signature against a public key encoded
// as alg:<base64>. The algorithm prefixes must agree.
func (a *Attestation) VerifySignature(publicKey, hashAlg string) error {
	if a.Signature == "" {
		return errors.New("attest: missing signature")
	}
	sigAlg, sigB64, ok := strings.Cut(a.Signature, ":")
	if !ok {
		return errors.New("attest: invalid signature encoding")
	}
	keyAlg, keyB64, ok := strings.Cut(publicKey, ":")
	if !ok {
		return errors.New("attest: invalid public key encoding")
	}
	if sigAlg != keyAlg {
		return fmt.Errorf("attest: signature alg %q does not match key alg %q", sigAlg, keyAlg)
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("attest: invalid signature base64: %w", err)
	}
	pub, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return fmt.Errorf("attest: invalid public key base64: %w", err)
	}
	scope, err := a.signScope()
	if err != nil {
		return err
	}
	digest, err := signatureDigest(hashAlg, scope)
	if err != nil {
		return err
	}

	switch sigAlg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return errors.New("attest: invalid ed25519 public key length")
		}
		if len(sig) != ed25519.SignatureSize {
			return errors.New("attest: invalid ed25519 signature length")
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), digest, sig) {
			return ErrBadSignature
		}
		return nil
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("attest: invalid dilithium3 public key: %w", err)
		}
		if len(sig) != mode3.SignatureSize {
			return errors.New("attest: invalid dilithium3 signature length")
		}
		if !mode3.Verify(&pk, digest, sig) {
			return ErrBadSignature
		}
		return nil
	default:
		return fmt.Errorf("attest: unsupported signature alg %q", sigAlg)
	}
}
