package harness

import "github.com/roach88/factoryplan/internal/ir"

// TraceEvent records one planner update made by a scenario.
type TraceEvent struct {
	Op      string `json:"op"`
	Factory string `json:"factory,omitempty"`
	Detail  string `json:"detail,omitempty"`

	// Pass is the planner pass that published the result, 0 if the update
	// was rejected.
	Pass int64 `json:"pass"`

	// Error holds the engine error code of a rejected update.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions match and every step behaved as expected.
	Pass bool `json:"pass"`

	// Trace contains every planner update in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Plan is the last published plan.
	Plan *ir.Plan `json:"plan"`

	// Digest is the digest of Plan.
	Digest string `json:"digest"`

	// Pruned lists the imports dropped while loading a cold-start scenario.
	Pruned []string `json:"pruned,omitempty"`

	// BuildError is the engine error code that rejected the initial build,
	// empty when the build published.
	BuildError string `json:"build_error,omitempty"`

	// ReloadDigest is the digest after saving Plan as a tab and loading it
	// back through a fresh planner.
	ReloadDigest string `json:"reload_digest,omitempty"`

	// ReloadPruned is true if that reload pruned imports.
	ReloadPruned bool `json:"reload_pruned,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Plan:   &ir.Plan{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace appends an update to the trace.
func (r *Result) addTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
