package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"
)

func TestDerivePurposeSeedDeterministic(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DerivePurposeSeed(root, "attest")
	if err != nil {
		t.Fatalf("DerivePurposeSeed: %v", err)
	}
	b, err := DerivePurposeSeed(root, "attest")
	if err != nil {
		t.Fatalf("DerivePurposeSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected deterministic derivation")
	}

	c, err := DerivePurposeSeed(root, "serve")
	if err != nil {
		t.Fatalf("DerivePurposeSeed: %v", err)
	}
	if string(a) == string(c) {
		t.Fatalf("expected different purposes to derive different seeds")
	}
}

func TestNodeKeyFromSeedFormat(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	nodeKey := NodeKeyFromSeed(seed)
	if !strings.HasPrefix(nodeKey, "ed25519:") {
		t.Fatalf("expected ed25519 prefix, got %q", nodeKey)
	}
	b64 := strings.TrimPrefix(nodeKey, "ed25519:")
	pubBytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("expected valid base64: %v", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		t.Fatalf("expected %d pubkey bytes, got %d", ed25519.PublicKeySize, len(pubBytes))
	}
}

func TestDilithium3FromSeedDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(100 + i)
	}
	pubA, _, err := Dilithium3FromSeed(seed)
	if err != nil {
		t.Fatalf("Dilithium3FromSeed: %v", err)
	}
	pubB, _, err := Dilithium3FromSeed(seed)
	if err != nil {
		t.Fatalf("Dilithium3FromSeed: %v", err)
	}
	keyA, err := Dilithium3NodeKey(pubA)
	if err != nil {
		t.Fatalf("Dilithium3NodeKey: %v", err)
	}
	keyB, err := Dilithium3NodeKey(pubB)
	if err != nil {
		t.Fatalf("Dilithium3NodeKey: %v", err)
	}
	if keyA != keyB {
		t.Fatalf("expected deterministic dilithium3 key")
	}
	if !strings.HasPrefix(keyA, "dilithium3:") {
		t.Fatalf("expected dilithium3 prefix, got %.20q", keyA)
	}
}

func TestKeyStoreRoundTrip(t *testing.T) {
	ks, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}

	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i * 7)
	}

	nodeKey, _, err := ks.InitRootKey("render-node", seed, false)
	if err != nil {
		t.Fatalf("InitRootKey: %v", err)
	}
	if nodeKey != NodeKeyFromSeed(seed) {
		t.Fatalf("node key mismatch")
	}

	// A second init without overwrite must not clobber the seed.
	if _, _, err := ks.InitRootKey("render-node", make([]byte, ed25519.SeedSize), false); err == nil {
		t.Fatalf("expected error on duplicate init")
	}

	attestKey, _, err := ks.DeriveForPurpose("render-node", "attest", false)
	if err != nil {
		t.Fatalf("DeriveForPurpose: %v", err)
	}
	exported, err := ks.ExportNodeKey("render-node", "attest")
	if err != nil {
		t.Fatalf("ExportNodeKey: %v", err)
	}
	if exported != attestKey {
		t.Fatalf("exported key mismatch")
	}

	loaded, err := ks.LoadSeed("", "render-node", "", "")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if string(loaded) != string(seed) {
		t.Fatalf("loaded seed mismatch")
	}

	list, err := ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "render-node" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if len(list[0].Purposes) != 1 || list[0].Purposes[0] != "attest" {
		t.Fatalf("unexpected purposes: %+v", list[0].Purposes)
	}
}
