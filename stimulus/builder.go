package stimulus

import (
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

// ClockBuilder can build clock drivers.
type ClockBuilder struct {
	engine     sim.Engine
	halfPeriod sim.VTime
	numCycles  uint64
	startTime  sim.VTime
	hasStart   bool
}

// MakeClockBuilder creates a builder with a 1ns half period and 10 cycles.
func MakeClockBuilder() ClockBuilder {
	return ClockBuilder{
		halfPeriod: 1 * sim.NS,
		numCycles:  10,
	}
}

// WithEngine sets the engine that schedules the toggles.
func (b ClockBuilder) WithEngine(e sim.Engine) ClockBuilder {
	b.engine = e
	return b
}

// WithHalfPeriod sets how long the clock stays at each level.
func (b ClockBuilder) WithHalfPeriod(d sim.VTime) ClockBuilder {
	b.halfPeriod = d
	return b
}

// WithFreq sets the half period from a clock frequency.
func (b ClockBuilder) WithFreq(f sim.Freq) ClockBuilder {
	b.halfPeriod = f.Period() / 2
	return b
}

// WithCycles sets the number of low-high pairs to drive.
func (b ClockBuilder) WithCycles(n uint64) ClockBuilder {
	b.numCycles = n
	return b
}

// WithStartTime delays the first toggle to the given time.
func (b ClockBuilder) WithStartTime(t sim.VTime) ClockBuilder {
	b.startTime = t
	b.hasStart = true

	return b
}

func (b ClockBuilder) parametersMustBeValid() {
	if b.engine == nil {
		panic("clock driver requires an engine")
	}

	if b.halfPeriod == 0 {
		panic("clock half period cannot be 0")
	}

	if b.numCycles == 0 {
		panic("clock cycle count cannot be 0")
	}
}

// Build creates a clock driver that drives sig.
func (b ClockBuilder) Build(name string, sig *signal.Signal) *ClockDriver {
	b.parametersMustBeValid()

	if sig == nil {
		panic("clock driver requires a signal")
	}

	return &ClockDriver{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		sig:           sig,
		halfPeriod:    b.halfPeriod,
		numCycles:     b.numCycles,
		startTime:     b.startTime,
		hasStart:      b.hasStart,
	}
}

// ResetBuilder can build reset drivers.
type ResetBuilder struct {
	engine    sim.Engine
	hold      sim.VTime
	activeLow bool
}

// MakeResetBuilder creates a builder that holds an active-high reset for 10ns.
func MakeResetBuilder() ResetBuilder {
	return ResetBuilder{hold: 10 * sim.NS}
}

// WithEngine sets the engine that schedules the release.
func (b ResetBuilder) WithEngine(e sim.Engine) ResetBuilder {
	b.engine = e
	return b
}

// WithHold sets how long reset stays asserted.
func (b ResetBuilder) WithHold(d sim.VTime) ResetBuilder {
	b.hold = d
	return b
}

// WithActiveLow makes the driver assert reset by driving 0.
func (b ResetBuilder) WithActiveLow() ResetBuilder {
	b.activeLow = true
	return b
}

// Build creates a reset driver that drives sig.
func (b ResetBuilder) Build(name string, sig *signal.Signal) *ResetDriver {
	if b.engine == nil {
		panic("reset driver requires an engine")
	}

	if sig == nil {
		panic("reset driver requires a signal")
	}

	d := &ResetDriver{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		sig:           sig,
		hold:          b.hold,
		asserted:      1,
	}

	if b.activeLow {
		d.asserted = 0
	}

	return d
}
