// Package quota is the execution-budget collaborator consulted before any
// render. An exceeded budget is a precondition failure, not an execution
// error: nothing is rendered and nothing is attested.
package quota

import (
	"errors"
	"sync"
)

var ErrExceeded = errors.New("quota: exceeded")

// Status reports one caller's budget.
type Status struct {
	Limit     int  `json:"limit"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Exceeded  bool `json:"exceeded"`
}

// Gate answers budget questions per caller key.
type Gate interface {
	// Check reports the current status without consuming budget.
	Check(key string) Status
	// Consume records one execution and returns the status after it, or
	// ErrExceeded without recording when the budget is spent.
	Consume(key string) (Status, error)
}

// MemoryGate is an in-process Gate with a uniform per-key limit. A limit of
// zero or below means unlimited.
type MemoryGate struct {
	mu    sync.Mutex
	limit int
	used  map[string]int
}

func NewMemoryGate(limit int) *MemoryGate {
	return &MemoryGate{limit: limit, used: make(map[string]int)}
}

func (g *MemoryGate) Check(key string) Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status(key)
}

func (g *MemoryGate) Consume(key string) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.status(key)
	if st.Exceeded {
		return st, ErrExceeded
	}
	g.used[key]++
	return g.status(key), nil
}

func (g *MemoryGate) status(key string) Status {
	used := g.used[key]
	if g.limit <= 0 {
		return Status{Used: used, Remaining: -1}
	}
	remaining := g.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Status{Limit: g.limit, Used: used, Remaining: remaining, Exceeded: used >= g.limit}
}
