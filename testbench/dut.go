package testbench

import (
	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

// DUT is the surface of the design under test that a test drives.
type DUT interface {
	Engine() sim.Engine
	Signal(name string) *signal.Signal
	Memory(name string) *mem.Storage

	// Halted reports whether the design asked the simulation to stop.
	Halted() bool
}

// A Terminator is a DUT that has resources to release after a test.
type Terminator interface {
	Terminate()
}

// A Console is a DUT whose firmware can print to the host.
type Console interface {
	ConsoleOutput() string
}
