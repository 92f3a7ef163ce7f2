package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lumen.art/node/attest"
)

func testAttestation(certHash string) *attest.Attestation {
	return &attest.Attestation{
		AttestedAt:      "2026-08-30T12:00:00Z",
		AttestationID:   "id-" + certHash[:8],
		BundleType:      attest.KindCodeMode,
		CertificateHash: certHash,
		NodeRuntimeHash: "6a5f3b0c9d8e7f6a5f3b0c9d8e7f6a5f3b0c9d8e7f6a5f3b0c9d8e7f6a5f3b0c",
		ProtocolVersion: attest.ProtocolVersion,
		Verified:        true,
	}
}

const certA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
const certB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func openTest(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndGet(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()

	inserted, err := l.Record(ctx, testAttestation(certA))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !inserted {
		t.Fatal("first record not inserted")
	}

	got, err := l.Get(ctx, certA)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CertificateHash != certA || !got.Verified {
		t.Fatalf("Get = %+v", got)
	}
}

func TestRecordIdempotent(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()

	first := testAttestation(certA)
	if _, err := l.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// A second verification of the same certificate produces a new id but
	// must not create a second logical record.
	second := testAttestation(certA)
	second.AttestationID = "different-id"
	inserted, err := l.Record(ctx, second)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if inserted {
		t.Fatal("duplicate certificate hash inserted twice")
	}

	got, err := l.Get(ctx, certA)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AttestationID != first.AttestationID {
		t.Fatal("original record was overwritten")
	}
	n, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestGetMissing(t *testing.T) {
	l := openTest(t)
	if _, err := l.Get(context.Background(), certB); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: got %v, want ErrNotFound", err)
	}
}

func TestDistinctCertificates(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()
	if _, err := l.Record(ctx, testAttestation(certA)); err != nil {
		t.Fatalf("Record a: %v", err)
	}
	if _, err := l.Record(ctx, testAttestation(certB)); err != nil {
		t.Fatalf("Record b: %v", err)
	}
	n, _ := l.Count(ctx)
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}
