package testbench

import (
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

// Clock returns a process that drives s low then high, each for half, n
// times. It neither watches the simulation nor stops early.
func Clock(s *signal.Signal, half sim.VTime, n int) ProcFunc {
	return func(p *Process) error {
		for i := 0; i < n; i++ {
			s.Set(0)
			p.Timer(half)
			s.Set(1)
			p.Timer(half)
		}

		return nil
	}
}
