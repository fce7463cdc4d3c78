package engine

import (
	"log/slog"

	"github.com/roach88/iocplan/internal/ir"
)

// Processor discovers, orders and executes processing work.
//
// Register bindings, then call Plan to inspect the order or Process to run
// it. A Processor runs on the caller's goroutine and is not safe for
// concurrent use.
type Processor struct {
	registry   *Registry
	scanner    Scanner
	pctx       ProcessingContext
	injection  *InjectionContext
	clock      *Clock
	runIDs     RunIDGenerator
	maxBatches int
}

// Option configures a Processor.
type Option func(*Processor)

// WithMaxBatches sets the discovery batch quota.
//
// Default: 1000 batches (DefaultMaxBatches)
func WithMaxBatches(n int) Option {
	return func(p *Processor) {
		p.maxBatches = n
	}
}

// WithClock sets the logical clock used to stamp execution records.
func WithClock(c *Clock) Option {
	return func(p *Processor) {
		p.clock = c
	}
}

// WithRunIDGenerator sets the run ID source. Defaults to UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(p *Processor) {
		p.runIDs = g
	}
}

// WithInjectionContext shares an existing injection context.
func WithInjectionContext(ic *InjectionContext) Option {
	return func(p *Processor) {
		p.injection = ic
	}
}

// New creates a Processor that finds elements through scanner.
func New(scanner Scanner, pctx ProcessingContext, opts ...Option) *Processor {
	p := &Processor{
		registry:   NewRegistry(),
		scanner:    scanner,
		pctx:       pctx,
		injection:  NewInjectionContext(),
		clock:      NewClock(),
		runIDs:     UUIDv7Generator{},
		maxBatches: DefaultMaxBatches,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register adds a binding for annotation handled by h.
func (p *Processor) Register(annotation ir.AnnotationDecl, h Handler, rules ...ir.Rule) *Entry {
	return p.registry.Register(annotation, h, rules...)
}

// RegisterNamed adds a named binding for annotation handled by h.
func (p *Processor) RegisterNamed(name string, annotation ir.AnnotationDecl, h Handler, rules ...ir.Rule) *Entry {
	return p.registry.RegisterNamed(name, annotation, h, rules...)
}

// Registry returns the processor's registry.
func (p *Processor) Registry() *Registry {
	return p.registry
}

// Injection returns the shared injection context.
func (p *Processor) Injection() *InjectionContext {
	return p.injection
}

// Clock returns the logical clock.
func (p *Processor) Clock() *Clock {
	return p.clock
}

// Plan runs discovery and sorts the merged units. A cycle fails with a
// CYCLE_DETECTED RuntimeError wrapping *graph.CycleError.
func (p *Processor) Plan() (*Plan, error) {
	d, err := p.Discover()
	if err != nil {
		return nil, err
	}

	units, err := d.Graph.Sort()
	if err != nil {
		return nil, NewCycleError(err)
	}
	return &Plan{Discovery: d, Units: units}, nil
}

// Result is the outcome of Process.
type Result struct {
	RunID       string
	Plan        *Plan
	Fingerprint string
	Records     []ExecutionRecord
	Suppressed  int
}

// Process plans and executes. When a handler fails during execution the
// partial Result is returned together with the error; when planning fails
// the Result is nil.
func (p *Processor) Process() (*Result, error) {
	plan, err := p.Plan()
	if err != nil {
		return nil, err
	}

	fp, err := plan.Fingerprint()
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       p.runIDs.Generate(),
		Plan:        plan,
		Fingerprint: fp,
	}

	slog.Info("executing plan",
		"run_id", res.RunID,
		"units", len(plan.Units),
		"fingerprint", fp,
	)

	res.Records, res.Suppressed, err = execute(plan.Units, p.clock)
	if err != nil {
		return res, err
	}

	slog.Info("plan executed",
		"run_id", res.RunID,
		"executed", len(res.Records),
		"suppressed", res.Suppressed,
	)
	return res, nil
}
