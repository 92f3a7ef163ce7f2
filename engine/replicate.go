package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"lumen.art/node/storage"
)

// job is one replication event: a set of labeled blocks to push to every
// replica backend.
type job struct {
	kind   string
	blocks map[string][]byte
}

// replicator is the fire-and-forget worker behind the engine. The
// synchronous request path only enqueues; push failures are logged and
// never surface to the caller. A full queue drops the event rather than
// blocking a response.
type replicator struct {
	target storage.ReplicatingCAS
	log    zerolog.Logger
	jobs   chan job
	wg     sync.WaitGroup

	closeOnce sync.Once
}

const queueDepth = 64

func newReplicator(target storage.ReplicatingCAS, log zerolog.Logger) *replicator {
	r := &replicator{
		target: target,
		log:    log,
		jobs:   make(chan job, queueDepth),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *replicator) enqueue(j job) {
	select {
	case r.jobs <- j:
	default:
		r.log.Warn().Str("kind", j.kind).Msg("replication queue full, dropping event")
	}
}

func (r *replicator) run() {
	defer r.wg.Done()
	for j := range r.jobs {
		for label, b := range j.blocks {
			id, perBackend, err := r.target.PutAll(b)
			if err != nil {
				r.log.Warn().
					Str("kind", j.kind).
					Str("label", label).
					Err(err).
					Msg("replication push failed")
				continue
			}
			r.log.Debug().
				Str("kind", j.kind).
				Str("label", label).
				Str("cid", id.String()).
				Int("backends", len(perBackend)).
				Msg("replicated block")
		}
	}
}

// close drains queued jobs and stops the worker.
func (r *replicator) close() {
	r.closeOnce.Do(func() { close(r.jobs) })
	r.wg.Wait()
}
