// Package ledger is the durable attestation store. One immutable record
// exists per certificate hash; re-verifying the same certificate never
// creates a second record.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"lumen.art/node/attest"
)

var ErrNotFound = errors.New("ledger: not found")

const schema = `
CREATE TABLE IF NOT EXISTS attestations (
	certificate_hash  TEXT PRIMARY KEY,
	attestation_id    TEXT NOT NULL,
	attested_at       TEXT NOT NULL,
	bundle_type       TEXT NOT NULL,
	node_runtime_hash TEXT NOT NULL,
	protocol_version  TEXT NOT NULL,
	verified          INTEGER NOT NULL,
	signature         TEXT NOT NULL DEFAULT ''
);
`

// Ledger stores attestation records in SQLite.
type Ledger struct {
	db *sql.DB
}

// Open opens (and if needed creates) the ledger at path. Use ":memory:" for
// an ephemeral ledger in tests.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Record inserts an attestation keyed by its certificate hash. The insert is
// idempotent: a record already present wins and the duplicate is dropped.
// Returns true when a new record was written.
func (l *Ledger) Record(ctx context.Context, a *attest.Attestation) (bool, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO attestations (
			certificate_hash, attestation_id, attested_at, bundle_type,
			node_runtime_hash, protocol_version, verified, signature
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(certificate_hash) DO NOTHING`,
		a.CertificateHash, a.AttestationID, a.AttestedAt, a.BundleType,
		a.NodeRuntimeHash, a.ProtocolVersion, boolInt(a.Verified), a.Signature,
	)
	if err != nil {
		return false, fmt.Errorf("ledger: record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ledger: record: %w", err)
	}
	return n > 0, nil
}

// Get returns the attestation recorded for a certificate hash.
func (l *Ledger) Get(ctx context.Context, certificateHash string) (*attest.Attestation, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT certificate_hash, attestation_id, attested_at, bundle_type,
		       node_runtime_hash, protocol_version, verified, signature
		FROM attestations WHERE certificate_hash = ?`, certificateHash)

	var a attest.Attestation
	var verified int
	err := row.Scan(&a.CertificateHash, &a.AttestationID, &a.AttestedAt, &a.BundleType,
		&a.NodeRuntimeHash, &a.ProtocolVersion, &verified, &a.Signature)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get: %w", err)
	}
	a.Verified = verified != 0
	return &a, nil
}

// Count reports the number of recorded attestations.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attestations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: count: %w", err)
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
