package benches

import (
	"bytes"
	"fmt"

	"github.com/sarchlab/tbsim/loader"
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/testbench"
)

// SanityData is what core_sanity writes into RAM.
var SanityData = []byte("12345")

const sanitySettle = 5 * sim.NS

type edgeCounter struct {
	rises, falls int
}

func (c *edgeCounter) Func(ctx sim.HookCtx) {
	if ctx.Pos != signal.HookPosChange {
		return
	}

	switch ctx.Detail.(signal.Change).Edge {
	case signal.RisingEdge:
		c.rises++
	case signal.FallingEdge:
		c.falls++
	}
}

func coreSanity(cfg Config) testbench.TestFunc {
	return func(p *testbench.Process, dut testbench.DUT) error {
		clk := dut.Signal(ClockSignal)
		ram := dut.Memory(RAM)

		counter := &edgeCounter{}
		clk.AcceptHook(counter)

		p.Start("clock", testbench.Clock(clk, cfg.HalfPeriod, cfg.Cycles))

		res, err := loader.FillMemory(ram, 0, SanityData)
		if err != nil {
			return err
		}
		p.Logf("filled %d bytes in %d words", res.Bytes, res.Words)

		p.Timer(sanitySettle)
		p.FallingEdge(clk)
		p.Logf("falling edge")

		got, err := ram.Read(0, uint64(len(SanityData)))
		if err != nil {
			return err
		}

		if !bytes.Equal(got, SanityData) {
			return fmt.Errorf("memory holds %q, want %q", got, SanityData)
		}

		if clk.Value() != 0 {
			return fmt.Errorf("clk is %d after a falling edge", clk.Value())
		}

		if counter.rises == 0 || counter.rises != counter.falls {
			return fmt.Errorf("clock did not alternate: %d rising, %d falling",
				counter.rises, counter.falls)
		}

		return nil
	}
}
