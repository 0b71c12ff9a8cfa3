package benches

import (
	"fmt"

	"github.com/sarchlab/tbsim/loader"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/stimulus"
	"github.com/sarchlab/tbsim/testbench"
)

// Program boot parameters.
const (
	BootResetHold   = 10 * sim.NS
	BootHalfPeriod  = 5 * sim.NS
	BootCycles      = 1000
	BootRAMFillByte = 0xff
)

// BootProgram is ten "addi x1, x1, 1" followed by a "ret".
var BootProgram = func() []uint32 {
	words := make([]uint32, 0, 11)
	for i := 0; i < 10; i++ {
		words = append(words, 0x00108093)
	}

	return append(words, 0x00000067)
}()

func programBoot(_ Config) testbench.TestFunc {
	return func(p *testbench.Process, dut testbench.DUT) error {
		ram := dut.Memory(RAM)
		ram.Fill(BootRAMFillByte)

		_, err := loader.LoadWords(ram, 0, BootProgram)
		if err != nil {
			return err
		}

		rst := stimulus.MakeResetBuilder().
			WithEngine(dut.Engine()).
			WithHold(BootResetHold).
			Build("reset", dut.Signal(ResetSignal))
		clock := stimulus.MakeClockBuilder().
			WithEngine(dut.Engine()).
			WithHalfPeriod(BootHalfPeriod).
			WithCycles(BootCycles).
			Build("clock", dut.Signal(ClockSignal))

		rst.Start()
		clock.Start()

		p.FallingEdge(dut.Signal(ResetSignal))
		p.Logf("reset released")

		for range BootProgram {
			p.RisingEdge(dut.Signal(ClockSignal))
		}

		err = checkImage(ram)
		if err != nil {
			return err
		}

		if !rst.Released() {
			return fmt.Errorf("reset is still asserted")
		}

		p.Logf("%d cycles after reset", clock.Cycles())

		return nil
	}
}

type wordReader interface {
	ReadWord(addr uint64) (uint32, error)
}

func checkImage(ram wordReader) error {
	for i, want := range BootProgram {
		got, err := ram.ReadWord(uint64(4 * i))
		if err != nil {
			return err
		}

		if got != want {
			return fmt.Errorf("word %d is %#08x, want %#08x", i, got, want)
		}
	}

	after, err := ram.ReadWord(uint64(4 * len(BootProgram)))
	if err != nil {
		return err
	}

	if after != 0xffffffff {
		return fmt.Errorf("word after the program is %#08x, want 0xffffffff",
			after)
	}

	return nil
}
