// Package testbench runs test procedures against a simulated design.
//
// A test procedure is a Process: a goroutine that runs until it waits on
// simulated time or on a signal edge, then hands control back to the engine.
// Only one of the engine loop and the processes runs at any moment, so test
// code can drive signals and poke memories without locking.
//
//	err := tb.Run(ctx, func(p *testbench.Process) error {
//		clk := p.DUT().Signal("clk")
//		p.Start("clock", func(p *testbench.Process) error {
//			for i := 0; i < 10; i++ {
//				clk.Set(0)
//				p.Timer(1 * sim.NS)
//				clk.Set(1)
//				p.Timer(1 * sim.NS)
//			}
//			return nil
//		})
//
//		p.Timer(5 * sim.NS)
//		p.FallingEdge(clk)
//		return nil
//	})
//
// The test ends when the main procedure returns. Background processes still
// waiting at that point are discarded.
package testbench
