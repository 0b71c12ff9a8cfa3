package stimulus

import (
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

type releaseEvent struct {
	*sim.EventBase
}

// A ResetDriver asserts a reset signal when started and releases it after a
// hold time.
type ResetDriver struct {
	*sim.ComponentBase

	engine   sim.Engine
	sig      *signal.Signal
	hold     sim.VTime
	asserted uint64

	released bool
}

// Start asserts reset now and schedules its release.
func (d *ResetDriver) Start() {
	d.sig.Set(d.asserted)

	releaseAt := d.engine.CurrentTime() + d.hold
	d.engine.Schedule(releaseEvent{EventBase: sim.NewEventBase(releaseAt, d)})
}

// Handle releases reset.
func (d *ResetDriver) Handle(_ sim.Event) error {
	d.sig.Set(d.asserted ^ 1)
	d.released = true

	return nil
}

// Released reports whether reset has been deasserted.
func (d *ResetDriver) Released() bool {
	return d.released
}
