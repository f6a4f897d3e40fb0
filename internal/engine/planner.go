package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/ir"
)

// Snapshot is one published, fully recomputed plan.
type Snapshot struct {
	Plan   *ir.Plan
	Pass   int64  // logical clock value at publish time
	Digest string // ir.PlanDigest of Plan
}

// PublishHook is called after every successful publish, outside the lock.
type PublishHook func(Snapshot)

// Planner owns the published plan. Mutations run on a private copy which is
// recomputed and then swapped in; readers never see a partial pass. Any
// error discards the copy and leaves the published plan untouched.
type Planner struct {
	mu        sync.Mutex
	cat       *catalog.Catalog
	current   *ir.Plan
	digest    string
	clock     Sequencer
	hooks     []PublishHook
	coldStart bool
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithPublishHook registers a hook called with every new snapshot.
func WithPublishHook(h PublishHook) PlannerOption {
	return func(p *Planner) {
		p.hooks = append(p.hooks, h)
	}
}

// WithClock sets the sequencer used to number passes.
func WithClock(c Sequencer) PlannerOption {
	return func(p *Planner) {
		p.clock = c
	}
}

// WithColdStartOnLoad controls whether Load uses ModeColdStart (default true).
func WithColdStartOnLoad(enabled bool) PlannerOption {
	return func(p *Planner) {
		p.coldStart = enabled
	}
}

// NewPlanner creates a planner with an empty published plan.
func NewPlanner(cat *catalog.Catalog, opts ...PlannerOption) *Planner {
	p := &Planner{
		cat:       cat,
		current:   &ir.Plan{},
		clock:     NewClock(),
		coldStart: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.digest = ir.MustPlanDigest(p.current)
	return p
}

// Snapshot returns a copy of the published plan.
func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{Plan: p.current.Clone(), Pass: p.clock.Current(), Digest: p.digest}
}

// Update applies fn to a copy of the published plan, recomputes it and
// publishes the result. Updates are serialised: fn runs with the planner
// locked and must not call back into it.
func (p *Planner) Update(fn func(*ir.Plan) error) (Snapshot, error) {
	p.mu.Lock()
	work, err := p.mutateLocked(fn)
	if err != nil {
		p.mu.Unlock()
		slog.Debug("mutation rejected", "error", err)
		return Snapshot{}, err
	}
	return p.recomputeLocked(work, ModeNormal)
}

// mutateLocked applies fn to a copy of the published plan. p.mu must be
// held; it is released if fn panics.
func (p *Planner) mutateLocked(fn func(*ir.Plan) error) (*ir.Plan, error) {
	ok := false
	defer func() {
		if !ok {
			p.mu.Unlock()
		}
	}()
	work := p.current.Clone()
	err := fn(work)
	ok = true
	return work, err
}

// Load replaces the published plan with a previously saved one.
func (p *Planner) Load(plan *ir.Plan) (Snapshot, error) {
	mode := ModeNormal
	if p.coldStart {
		mode = ModeColdStart
	}
	p.mu.Lock()
	return p.recomputeLocked(plan, mode)
}

// recomputeLocked must be called with p.mu held; it releases the lock
// before running hooks.
func (p *Planner) recomputeLocked(work *ir.Plan, mode Mode) (Snapshot, error) {
	next, err := Recompute(work, p.cat, mode)
	if err != nil {
		p.mu.Unlock()
		slog.Warn("recompute failed, keeping published plan", "mode", mode.String(), "error", err)
		return Snapshot{}, err
	}

	digest, err := ir.PlanDigest(next)
	if err != nil {
		p.mu.Unlock()
		return Snapshot{}, err
	}

	p.current = next
	p.digest = digest
	snap := Snapshot{Plan: next.Clone(), Pass: p.clock.Next(), Digest: digest}
	hooks := p.hooks
	p.mu.Unlock()

	slog.Debug("plan published", "pass", snap.Pass, "digest", digest)
	for _, h := range hooks {
		h(Snapshot{Plan: snap.Plan.Clone(), Pass: snap.Pass, Digest: snap.Digest})
	}
	return snap, nil
}
