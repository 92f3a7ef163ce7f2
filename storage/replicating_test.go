package storage_test

import (
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"lumen.art/node/cidutil"
	"lumen.art/node/storage"
	"lumen.art/node/storage/localfs"
)

func newStore(t *testing.T) *localfs.Store {
	t.Helper()
	store, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestReplicatingPutAll(t *testing.T) {
	a := newStore(t)
	b := newStore(t)
	rep := storage.ReplicatingCAS{Backends: []storage.NamedCAS{
		{Name: "primary", CAS: a},
		{Name: "peer", CAS: b},
	}}

	payload := []byte("replicated artifact")
	id, perBackend, err := rep.PutAll(payload)
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	want, err := cidutil.ArtifactCID(payload)
	if err != nil {
		t.Fatal(err)
	}
	if id != want {
		t.Fatalf("canonical CID: got %s want %s", id, want)
	}
	for _, name := range []string{"primary", "peer"} {
		if perBackend[name] != want {
			t.Fatalf("backend %s CID: got %s want %s", name, perBackend[name], want)
		}
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatalf("expected both backends to hold the block")
	}
}

type mismatchCAS struct{}

func (mismatchCAS) Put(b []byte) (cid.Cid, error) {
	id, err := cidutil.ArtifactCID(append([]byte("x"), b...))
	return id, err
}
func (mismatchCAS) Get(id cid.Cid) ([]byte, error) { return nil, storage.ErrNotFound }
func (mismatchCAS) Has(id cid.Cid) bool            { return false }

func TestReplicatingRejectsDivergentCID(t *testing.T) {
	rep := storage.ReplicatingCAS{Backends: []storage.NamedCAS{
		{Name: "good", CAS: newStore(t)},
		{Name: "bad", CAS: mismatchCAS{}},
	}}
	if _, _, err := rep.PutAll([]byte("payload")); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestReplicatingGetFallsBack(t *testing.T) {
	a := newStore(t)
	b := newStore(t)
	payload := []byte("only on peer")
	id, err := b.Put(payload)
	if err != nil {
		t.Fatal(err)
	}

	rep := storage.ReplicatingCAS{Backends: []storage.NamedCAS{
		{Name: "primary", CAS: a},
		{Name: "peer", CAS: b},
	}}
	got, err := rep.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestMultiReadsInOrderWritesFirst(t *testing.T) {
	a := newStore(t)
	b := newStore(t)
	multi := storage.MultiCAS{Adapters: []storage.CAS{a, b}}

	id, err := multi.Put([]byte("first only"))
	if err != nil {
		t.Fatal(err)
	}
	if !a.Has(id) {
		t.Fatalf("expected write to land on first adapter")
	}
	if b.Has(id) {
		t.Fatalf("expected second adapter untouched")
	}

	missing, err := cidutil.ArtifactCID([]byte("absent"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := multi.Get(missing); !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
