package localfs

import (
	"errors"
	"os"
	"testing"

	"lumen.art/node/cidutil"
	"lumen.art/node/storage"
	"lumen.art/node/storage/casregistry"
	"lumen.art/node/storage/testkit"
)

func TestStoreConformance(t *testing.T) {
	testkit.RunConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		store, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return store
	})
}

func TestStoreRejectsOutOfBandMutation(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := []byte("poster frame bytes")
	id, err := store.Put(orig)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Corrupt the stored object behind the store's back.
	path := store.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := store.Get(id); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Get after corruption: got %v want %v", err, storage.ErrCIDMismatch)
	}

	// Put must not silently repair the corrupted object.
	if _, err := store.Put(orig); !errors.Is(err, storage.ErrImmutable) {
		t.Fatalf("Put after corruption: got %v want %v", err, storage.ErrImmutable)
	}

	wantID, err := cidutil.ArtifactCID(orig)
	if err != nil {
		t.Fatalf("ArtifactCID failed: %v", err)
	}
	if id != wantID {
		t.Fatalf("unexpected CID: got %s want %s", id, wantID)
	}
}

func TestRegistryOpensLocalfs(t *testing.T) {
	store, closer, err := casregistry.Open("localfs", map[string]string{"dir": t.TempDir()})
	if err != nil {
		t.Fatalf("open via registry: %v", err)
	}
	if closer != nil {
		defer closer()
	}
	if _, err := store.Put([]byte("artifact")); err != nil {
		t.Fatalf("Put via registry-opened store: %v", err)
	}
}
