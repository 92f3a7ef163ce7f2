package grpccas

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"lumen.art/node/cidutil"
	"lumen.art/node/storage"
	"lumen.art/node/storage/localfs"
	"lumen.art/node/storage/testkit"
)

func newBufClient(t *testing.T) *Client {
	t.Helper()

	store, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterCASServer(srv, &Server{CAS: store})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return &Client{cc: cc, client: NewCASClient(cc), Timeout: 2 * time.Second}
}

func TestClientRoundTrip(t *testing.T) {
	client := newBufClient(t)

	payload := []byte("rendered loop bytes")
	id, err := client.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	want, err := cidutil.ArtifactCID(payload)
	if err != nil {
		t.Fatalf("ArtifactCID: %v", err)
	}
	if id != want {
		t.Fatalf("Put CID mismatch: got %s want %s", id, want)
	}
	if !client.Has(id) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestClientConformance(t *testing.T) {
	testkit.RunConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		return newBufClient(t)
	})
}

func TestClientMapsNotFound(t *testing.T) {
	client := newBufClient(t)

	id, err := cidutil.ArtifactCID([]byte("never stored"))
	if err != nil {
		t.Fatalf("ArtifactCID: %v", err)
	}
	if _, err := client.Get(id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get missing: got %v want ErrNotFound", err)
	}

	var undef cid.Cid
	if _, err := client.Get(undef); !errors.Is(err, storage.ErrInvalidCID) {
		t.Fatalf("Get undef: got %v want ErrInvalidCID", err)
	}
}
