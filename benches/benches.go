// Package benches holds the built-in testbenches.
package benches

import (
	"github.com/sarchlab/tbsim/hostif"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/simulation"
	"github.com/sarchlab/tbsim/testbench"
)

// Names of the signals and the memory of the design under test.
const (
	ClockSignal = "clk"
	ResetSignal = "rst"
	RAM         = "ram"
)

// Config parameterizes the built-in benches.
type Config struct {
	HalfPeriod sim.VTime
	Cycles     int
	RAMSize    uint64
}

// DefaultConfig returns a 1ns half period, 10 cycles and 64KiB of RAM.
func DefaultConfig() Config {
	return Config{
		HalfPeriod: sim.NS,
		Cycles:     10,
		RAMSize:    64 * 1024,
	}
}

// ToHostAddr and HostHaltAddr place the host interface words at the end of
// the RAM.
func (c Config) ToHostAddr() uint64 {
	return c.RAMSize - 8
}

// HostHaltAddr is the address of the hosthalt word.
func (c Config) HostHaltAddr() uint64 {
	return c.RAMSize - 4
}

// NewDUT builds a simulation with clk and rst signals and a RAM watched by a
// host interface.
func NewDUT(b simulation.Builder, cfg Config) (*simulation.Simulation, error) {
	s, err := b.Build()
	if err != nil {
		return nil, err
	}

	s.NewSignal(ClockSignal, 1)
	s.NewSignal(ResetSignal, 1)
	s.NewMemory(RAM, cfg.RAMSize)

	s.AttachHostInterface(RAM, hostif.MakeBuilder().
		WithAddresses(cfg.ToHostAddr(), cfg.HostHaltAddr()))

	return s, nil
}

// Register adds the built-in benches to a registry.
func Register(reg *testbench.Registry, cfg Config) {
	reg.Register(testbench.Test{
		Name: "core_sanity",
		Doc: "Run the clock in the background, fill memory, " +
			"then wait for a falling clock edge.",
		Func: coreSanity(cfg),
	})

	reg.Register(testbench.Test{
		Name: "program_boot",
		Doc:  "Load a small program into RAM, hold reset for 10ns, run the clock.",
		Func: programBoot(cfg),
	})

	reg.Register(testbench.Test{
		Name: "host_console",
		Doc:  "Print through tohost and halt through hosthalt.",
		Func: hostConsole(cfg),
	})
}
