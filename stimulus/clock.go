// Package stimulus provides components that drive signals over simulated
// time, such as a clock generator and a reset pulse.
package stimulus

import (
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

// toggleEvent drives the clock signal to a level.
type toggleEvent struct {
	*sim.EventBase
	level uint64
}

// A ClockDriver toggles a signal low then high, one half period each, for a
// fixed number of cycles. Once started it runs to completion on its own; it
// neither watches the simulation nor can be cancelled.
type ClockDriver struct {
	*sim.ComponentBase

	engine     sim.Engine
	sig        *signal.Signal
	halfPeriod sim.VTime
	numCycles  uint64
	startTime  sim.VTime
	hasStart   bool

	started bool
	begin   sim.VTime
	cycles  uint64
}

// Signal returns the driven signal.
func (c *ClockDriver) Signal() *signal.Signal {
	return c.sig
}

// HalfPeriod returns the time the clock stays at each level.
func (c *ClockDriver) HalfPeriod() sim.VTime {
	return c.halfPeriod
}

// NumCycles returns the number of cycles the driver generates.
func (c *ClockDriver) NumCycles() uint64 {
	return c.numCycles
}

// Cycles returns the number of low-high pairs driven so far.
func (c *ClockDriver) Cycles() uint64 {
	return c.cycles
}

// Done reports whether every cycle has been driven.
func (c *ClockDriver) Done() bool {
	return c.cycles == c.numCycles
}

// Start schedules the first toggle. Starting twice is a no-op.
func (c *ClockDriver) Start() {
	if c.started {
		return
	}

	c.started = true

	t := c.engine.CurrentTime()
	if c.hasStart && c.startTime > t {
		t = c.startTime
	}

	c.begin = t
	c.engine.Schedule(c.makeToggle(t, 0))
}

func (c *ClockDriver) makeToggle(t sim.VTime, level uint64) toggleEvent {
	return toggleEvent{EventBase: sim.NewEventBase(t, c), level: level}
}

// Handle drives the signal and schedules the next toggle.
func (c *ClockDriver) Handle(e sim.Event) error {
	evt := e.(toggleEvent)

	c.sig.Set(evt.level)

	next := evt.Time() + c.halfPeriod

	if evt.level == 0 {
		c.engine.Schedule(c.makeToggle(next, 1))
		return nil
	}

	c.cycles++
	if c.cycles < c.numCycles {
		c.engine.Schedule(c.makeToggle(next, 0))
	}

	return nil
}

// EndTime returns the time the high phase of the last cycle ends. It is only
// meaningful after Start.
func (c *ClockDriver) EndTime() sim.VTime {
	return c.begin + 2*c.halfPeriod*sim.VTime(c.numCycles)
}
