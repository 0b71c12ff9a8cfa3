package testbench

import (
	"fmt"
	"runtime/debug"

	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

// ProcFunc is the body of a process.
type ProcFunc func(p *Process) error

// killed is the panic value that unwinds a process discarded at the end of a
// test.
type killed struct{}

// A Process is a test coroutine.
type Process struct {
	tb     *Testbench
	id     string
	name   string
	resume chan struct{}

	done    bool
	err     error
	joiners []*Process
	waiting string
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return p.name
}

// DUT returns the design under test.
func (p *Process) DUT() DUT {
	return p.tb.dut
}

// Now returns the current simulated time.
func (p *Process) Now() sim.VTime {
	return p.tb.engine.CurrentTime()
}

// Done reports whether the process has returned.
func (p *Process) Done() bool {
	return p.done
}

// Err returns what the process returned. It is only meaningful once Done.
func (p *Process) Err() error {
	return p.err
}

// Logf writes a line to the testbench logger, prefixed with the time and the
// process name.
func (p *Process) Logf(format string, args ...any) {
	if p.tb.logger == nil {
		return
	}

	p.tb.logger.Printf("%s [%s] %s", p.Now(), p.name,
		fmt.Sprintf(format, args...))
}

// Timer suspends the process for d of simulated time.
func (p *Process) Timer(d sim.VTime) {
	p.mustBeAlive()
	p.tb.scheduleWake(p, p.Now()+d, false)
	p.block("timer " + d.String())
}

// RisingEdge suspends the process until s goes from 0 to 1.
func (p *Process) RisingEdge(s *signal.Signal) {
	p.waitEdge(s, signal.RisingEdge)
}

// FallingEdge suspends the process until s goes from 1 to 0.
func (p *Process) FallingEdge(s *signal.Signal) {
	p.waitEdge(s, signal.FallingEdge)
}

// Edge suspends the process until the value of s changes.
func (p *Process) Edge(s *signal.Signal) {
	p.waitEdge(s, signal.AnyChange)
}

func (p *Process) waitEdge(s *signal.Signal, want signal.Edge) {
	p.mustBeAlive()
	p.tb.watch(s).add(p, want)
	p.block(want.String() + " edge of " + s.Name())
}

// Start launches fn as a background process. It begins running at the
// current time, after the caller waits.
func (p *Process) Start(name string, fn ProcFunc) *Process {
	child := p.tb.spawn(name, fn)
	p.tb.scheduleWake(child, p.Now(), false)

	return child
}

// Join suspends the process until q returns, and returns q's error.
func (p *Process) Join(q *Process) error {
	if q == p {
		panic("process cannot join itself")
	}

	p.mustBeAlive()

	if !q.done {
		q.joiners = append(q.joiners, p)
		p.block("join " + q.name)
	}

	return q.err
}

// block hands control back to the engine and waits to be resumed.
func (p *Process) block(reason string) {
	p.waiting = reason

	select {
	case p.tb.yield <- p:
	case <-p.tb.kill:
		panic(killed{})
	}

	select {
	case <-p.resume:
		p.waiting = ""
	case <-p.tb.kill:
		panic(killed{})
	}
}

// mustBeAlive unwinds a process that keeps waiting after the test ended, for
// example from deferred code.
func (p *Process) mustBeAlive() {
	if p.tb.isKilled() {
		panic(killed{})
	}
}

// run is the body of the goroutine backing the process.
func (p *Process) run(fn ProcFunc) {
	defer p.tb.wg.Done()

	select {
	case <-p.resume:
	case <-p.tb.kill:
		return
	}

	wasKilled, err := p.call(fn)
	if wasKilled || p.tb.isKilled() {
		return
	}

	p.done = true
	p.err = err

	for _, j := range p.joiners {
		p.tb.scheduleWake(j, p.Now(), true)
	}
	p.joiners = nil

	p.tb.yield <- p
}

func (p *Process) call(fn ProcFunc) (wasKilled bool, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if _, ok := r.(killed); ok {
			wasKilled = true
			return
		}

		err = fmt.Errorf("process %s panicked: %v\n%s", p.name, r, debug.Stack())
	}()

	return false, fn(p)
}
