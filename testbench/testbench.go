package testbench

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

// Errors returned by Run when the main procedure could not finish.
var (
	ErrStalled = errors.New(
		"testbench: no more events while the test is waiting")
	ErrHalted = errors.New(
		"testbench: the design halted before the test finished")
	ErrAlreadyRun = errors.New("testbench: a testbench can only run once")
)

// wakeEvent resumes a waiting process.
type wakeEvent struct {
	*sim.EventBase
	proc *Process
}

// A Testbench runs one test procedure and the processes it starts.
type Testbench struct {
	dut    DUT
	engine sim.Engine
	logger *log.Logger

	yield chan *Process
	kill  chan struct{}
	wg    sync.WaitGroup

	main     *Process
	procs    []*Process
	watchers map[*signal.Signal]*edgeWatcher
	failure  error
	ctx      context.Context
	started  bool
	closed   bool
}

// New creates a testbench over a design under test.
func New(dut DUT) *Testbench {
	return &Testbench{
		dut:      dut,
		engine:   dut.Engine(),
		yield:    make(chan *Process),
		kill:     make(chan struct{}),
		watchers: make(map[*signal.Signal]*edgeWatcher),
	}
}

// WithLogger sets the logger that Process.Logf writes to.
func (tb *Testbench) WithLogger(l *log.Logger) *Testbench {
	tb.logger = l
	return tb
}

// Name returns the name used when the testbench appears in event logs.
func (tb *Testbench) Name() string {
	return "Testbench"
}

// Processes returns the processes spawned so far, main first.
func (tb *Testbench) Processes() []*Process {
	return tb.procs
}

// Run executes fn as the main procedure and drives the engine until fn
// returns. It returns fn's error, the error of a failed background process,
// or the reason the simulation ended first.
func (tb *Testbench) Run(ctx context.Context, fn ProcFunc) error {
	if tb.started {
		return ErrAlreadyRun
	}

	if ctx == nil {
		ctx = context.Background()
	}

	tb.started = true
	tb.ctx = ctx
	tb.engine.AcceptHook(sim.HookFunc(tb.checkContext))

	defer tb.shutdown()

	tb.main = tb.spawn("main", fn)
	tb.resume(tb.main)

	if !tb.main.done && tb.failure == nil {
		err := tb.engine.Run()
		if err != nil {
			return err
		}
	}

	return tb.result()
}

func (tb *Testbench) result() error {
	switch {
	case tb.failure != nil:
		return tb.failure
	case tb.main.done:
		return tb.main.err
	case tb.dut.Halted():
		return fmt.Errorf("%w: main waiting on %s",
			ErrHalted, tb.main.waiting)
	case tb.ctx.Err() != nil:
		return fmt.Errorf("testbench: main waiting on %s: %w",
			tb.main.waiting, tb.ctx.Err())
	default:
		return fmt.Errorf("%w: main waiting on %s at %s",
			ErrStalled, tb.main.waiting, tb.engine.CurrentTime())
	}
}

func (tb *Testbench) checkContext(ctx sim.HookCtx) {
	if tb.closed || ctx.Pos != sim.HookPosBeforeEvent {
		return
	}

	if tb.ctx.Err() != nil {
		tb.engine.Stop()
	}
}

func (tb *Testbench) spawn(name string, fn ProcFunc) *Process {
	p := &Process{
		tb:     tb,
		id:     sim.GetIDGenerator().Generate(),
		name:   name,
		resume: make(chan struct{}),
	}
	tb.procs = append(tb.procs, p)

	tb.wg.Add(1)
	go p.run(fn)

	return p
}

func (tb *Testbench) scheduleWake(p *Process, t sim.VTime, secondary bool) {
	base := sim.NewEventBase(t, tb)
	if secondary {
		base = sim.NewSecondaryEventBase(t, tb)
	}

	tb.engine.Schedule(wakeEvent{EventBase: base, proc: p})
}

// Handle resumes the process a wake event is for.
func (tb *Testbench) Handle(e sim.Event) error {
	evt, ok := e.(wakeEvent)
	if !ok {
		return fmt.Errorf("testbench: unexpected event %T", e)
	}

	if tb.closed || evt.proc.done {
		return nil
	}

	if tb.ctx.Err() != nil {
		tb.engine.Stop()
		return nil
	}

	tb.resume(evt.proc)

	return nil
}

// resume gives control to p and waits until it blocks again or returns.
func (tb *Testbench) resume(p *Process) {
	p.resume <- struct{}{}
	<-tb.yield

	if !p.done {
		return
	}

	if p == tb.main {
		tb.engine.Stop()
		return
	}

	if p.err != nil && tb.failure == nil {
		tb.failure = fmt.Errorf("background process %s: %w", p.name, p.err)
		tb.engine.Stop()
	}
}

func (tb *Testbench) isKilled() bool {
	select {
	case <-tb.kill:
		return true
	default:
		return false
	}
}

// shutdown unwinds every process that is still waiting.
func (tb *Testbench) shutdown() {
	tb.closed = true
	close(tb.kill)
	tb.wg.Wait()
}
