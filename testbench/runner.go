package testbench

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sarchlab/tbsim/sim"
)

// A Factory builds a fresh design under test for every test.
type Factory func(testName string) (DUT, error)

// A ProgressBar tracks how many tests are running and finished.
type ProgressBar interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// Result is the outcome of one test.
type Result struct {
	Name     string
	Passed   bool
	Err      error
	SimTime  sim.VTime
	WallTime time.Duration
}

// A Runner runs registered tests one after another.
type Runner struct {
	registry *Registry
	factory  Factory
	logger   *log.Logger
	progress ProgressBar
	timeout  time.Duration
}

// NewRunner creates a runner over the tests of a registry.
func NewRunner(registry *Registry, factory Factory) *Runner {
	return &Runner{
		registry: registry,
		factory:  factory,
	}
}

// WithLogger sets the logger handed to every testbench.
func (r *Runner) WithLogger(l *log.Logger) *Runner {
	r.logger = l
	return r
}

// WithProgressBar makes the runner report its progress.
func (r *Runner) WithProgressBar(b ProgressBar) *Runner {
	r.progress = b
	return r
}

// WithTimeout bounds the wall time of each test. Zero means no bound.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	r.timeout = d
	return r
}

// Select resolves test names. No names selects every test.
func (r *Runner) Select(names ...string) ([]Test, error) {
	if len(names) == 0 {
		return r.registry.Tests(), nil
	}

	tests := make([]Test, 0, len(names))
	for _, n := range names {
		t, found := r.registry.Lookup(n)
		if !found {
			return nil, fmt.Errorf("unknown test %q, available tests: %v",
				n, r.registry.Names())
		}

		tests = append(tests, t)
	}

	return tests, nil
}

// Run runs the named tests, or all of them. A failing test does not stop
// the run; the error is only set when a name is unknown.
func (r *Runner) Run(ctx context.Context, names ...string) ([]Result, error) {
	tests, err := r.Select(names...)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(tests))
	for _, t := range tests {
		if ctx.Err() != nil {
			results = append(results, Result{Name: t.Name, Err: ctx.Err()})
			continue
		}

		results = append(results, r.runOne(ctx, t))
	}

	return results, nil
}

func (r *Runner) runOne(ctx context.Context, t Test) Result {
	res := Result{Name: t.Name}

	if r.progress != nil {
		r.progress.IncrementInProgress(1)
		defer r.progress.MoveInProgressToFinished(1)
	}

	dut, err := r.factory(t.Name)
	if err != nil {
		res.Err = fmt.Errorf("build design: %w", err)
		return res
	}

	if term, ok := dut.(Terminator); ok {
		defer term.Terminate()
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tb := New(dut).WithLogger(r.logger)

	start := time.Now()
	res.Err = tb.Run(ctx, func(p *Process) error {
		return t.Func(p, dut)
	})
	res.WallTime = time.Since(start)
	res.SimTime = dut.Engine().CurrentTime()
	res.Passed = res.Err == nil

	return res
}
