package benches

import (
	"fmt"

	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/testbench"
)

// ConsoleMessage is what host_console prints.
const ConsoleMessage = "hello from tbsim\n"

func hostConsole(cfg Config) testbench.TestFunc {
	return func(p *testbench.Process, dut testbench.DUT) error {
		ram := dut.Memory(RAM)

		firmware := p.Start("firmware", func(q *testbench.Process) error {
			for i := 0; i < len(ConsoleMessage); i++ {
				err := ram.Write(cfg.ToHostAddr(), []byte{ConsoleMessage[i]})
				if err != nil {
					return err
				}

				q.Timer(cfg.HalfPeriod)
			}

			return nil
		})

		err := p.Join(firmware)
		if err != nil {
			return err
		}

		if dut.Halted() {
			return fmt.Errorf("halted before requesting it")
		}

		console, ok := dut.(testbench.Console)
		if !ok {
			return fmt.Errorf("the design has no console")
		}

		if got := console.ConsoleOutput(); got != ConsoleMessage {
			return fmt.Errorf("console printed %q, want %q", got, ConsoleMessage)
		}

		p.Timer(sim.NS)

		err = ram.WriteWord(cfg.HostHaltAddr(), 1)
		if err != nil {
			return err
		}

		if !dut.Halted() {
			return fmt.Errorf("hosthalt write did not halt the design")
		}

		return nil
	}
}
