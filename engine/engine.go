// Package engine is the node's execution orchestrator. It owns the
// synchronous path of one request: quota precondition, sketch execution via
// the frame sequencer, hash derivation, artifact storage, attestation, and
// the ledger insert. Replication is deliberately not on that path; it is an
// event handed to a background worker after the response is complete.
package engine

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"

	"lumen.art/node/attest"
	"lumen.art/node/frames"
	"lumen.art/node/ledger"
	"lumen.art/node/model"
	"lumen.art/node/quota"
	"lumen.art/node/storage"
)

// Config wires the engine's collaborators. Gate, Ledger, Store, and Replicas
// are optional: a nil collaborator disables that concern, nothing else
// changes.
type Config struct {
	Node attest.NodeIdentity

	Gate   quota.Gate
	Ledger *ledger.Ledger
	Store  storage.CAS

	// Replicas receive best-effort copies of artifacts and attestations.
	Replicas []storage.NamedCAS

	// SignKey, when set, signs every attestation this node produces.
	SignKey ed25519.PrivateKey

	ScratchRoot string
	Encoder     frames.Encoder
	Timeout     time.Duration

	Logger zerolog.Logger
}

// Engine executes snapshots and attests bundles. Safe for concurrent use;
// each request gets its own sequencer and sketch runtime.
type Engine struct {
	cfg Config
	log zerolog.Logger
	rep *replicator
}

func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg, log: cfg.Logger}
	if len(cfg.Replicas) > 0 {
		e.rep = newReplicator(storage.ReplicatingCAS{Backends: cfg.Replicas}, cfg.Logger)
	}
	return e
}

// Close stops the replication worker after draining queued events.
func (e *Engine) Close() {
	if e.rep != nil {
		e.rep.close()
	}
}

// Execution is the full outcome of one execute() call: the render result
// plus the hash-chain values derived from it.
type Execution struct {
	Snapshot   model.Snapshot
	Result     *model.RenderResult
	InputHash  string
	OutputHash string

	// ArtifactCIDs maps artifact labels (image, video, poster) to the CIDs
	// stored locally. Empty when no store is configured.
	ArtifactCIDs map[string]cid.Cid
}

// Execute runs one snapshot end to end. callerKey identifies the requester
// for quota accounting; an exhausted budget fails before any rendering.
func (e *Engine) Execute(ctx context.Context, callerKey string, snap model.Snapshot) (*Execution, error) {
	if e.cfg.Gate != nil {
		if _, err := e.cfg.Gate.Consume(callerKey); err != nil {
			return nil, fmt.Errorf("caller %q: %w", callerKey, err)
		}
	}

	seq := frames.NewSequencer(frames.Config{
		ScratchRoot: e.cfg.ScratchRoot,
		Encoder:     e.cfg.Encoder,
		Timeout:     e.cfg.Timeout,
	})
	res, err := seq.Run(ctx, snap)
	if err != nil {
		e.log.Debug().Str("state", seq.State().String()).Err(err).Msg("execution failed")
		return nil, err
	}

	inputHash, err := attest.ComputeInputHash(snap)
	if err != nil {
		return nil, err
	}
	outputHash, err := attest.ComputeOutputHash(outputValue(res))
	if err != nil {
		return nil, err
	}

	exec := &Execution{
		Snapshot:   snap,
		Result:     res,
		InputHash:  inputHash,
		OutputHash: outputHash,
	}

	if e.cfg.Store != nil {
		cids, err := e.storeArtifacts(res)
		if err != nil {
			return nil, err
		}
		exec.ArtifactCIDs = cids
		e.replicate("artifacts", artifactBlocks(res))
	}

	e.log.Info().
		Str("mode", string(snap.Mode)).
		Str("inputHash", inputHash).
		Str("outputHash", outputHash).
		Msg("executed snapshot")
	return exec, nil
}

// outputValue is the value under the output hash: the per-mode artifact
// hashes, keyed by role.
func outputValue(res *model.RenderResult) map[string]any {
	if res.Mode == model.ModeLoop {
		return map[string]any{
			"animationHash": res.AnimationHash,
			"posterHash":    res.PosterHash,
		}
	}
	return map[string]any{"imageHash": res.ImageHash}
}

func (e *Engine) storeArtifacts(res *model.RenderResult) (map[string]cid.Cid, error) {
	out := make(map[string]cid.Cid)
	for label, b := range artifactBlocks(res) {
		id, err := e.cfg.Store.Put(b)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", label, err)
		}
		out[label] = id
	}
	return out, nil
}

func artifactBlocks(res *model.RenderResult) map[string][]byte {
	blocks := make(map[string][]byte)
	if len(res.ImageBytes) > 0 {
		blocks["image"] = res.ImageBytes
	}
	if len(res.VideoBytes) > 0 {
		blocks["video"] = res.VideoBytes
	}
	if len(res.PosterBytes) > 0 {
		blocks["poster"] = res.PosterBytes
	}
	return blocks
}

// VerifyBundle is a pure function of the bundle; it touches no collaborator.
func (e *Engine) VerifyBundle(b attest.Bundle) attest.Result {
	return attest.VerifyBundle(b)
}

// Attest verifies a bundle and, on success, produces this node's attestation
// and records it durably. The bool reports whether a new ledger record was
// inserted; re-attesting a known certificate hash verifies again but inserts
// nothing.
func (e *Engine) Attest(ctx context.Context, b attest.Bundle) (*attest.Attestation, bool, error) {
	res := e.VerifyBundle(b)
	if !res.Valid {
		return nil, false, &VerificationError{Result: res}
	}

	a, err := attest.New(res, e.cfg.Node, time.Now())
	if err != nil {
		return nil, false, err
	}
	if e.cfg.SignKey != nil {
		if err := a.SignEd25519(e.cfg.SignKey, "sha256"); err != nil {
			return nil, false, err
		}
	}

	inserted := false
	if e.cfg.Ledger != nil {
		inserted, err = e.cfg.Ledger.Record(ctx, a)
		if err != nil {
			return nil, false, err
		}
	}

	if e.cfg.Store != nil {
		doc, err := attestationDocument(a)
		if err != nil {
			return nil, false, err
		}
		if _, err := e.cfg.Store.Put(doc); err != nil {
			return nil, false, err
		}
		e.replicate("attestation", map[string][]byte{"attestation": doc})
	}

	e.log.Info().
		Str("certificateHash", a.CertificateHash).
		Bool("inserted", inserted).
		Msg("attested bundle")
	return a, inserted, nil
}

func (e *Engine) replicate(kind string, blocks map[string][]byte) {
	if e.rep == nil || len(blocks) == 0 {
		return
	}
	e.rep.enqueue(job{kind: kind, blocks: blocks})
}
