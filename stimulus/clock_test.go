package stimulus

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

type transition struct {
	time  sim.VTime
	value uint64
}

func recordTransitions(
	s *signal.Signal,
	clock sim.TimeTeller,
	into *[]transition,
) {
	s.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		change := ctx.Detail.(signal.Change)
		*into = append(*into, transition{clock.CurrentTime(), change.New})
	}))
}

var _ = Describe("ClockDriver", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		clk      *signal.Signal
		driver   *ClockDriver
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		clk = signal.NewBit("clk")
		driver = MakeClockBuilder().
			WithEngine(engine).
			WithHalfPeriod(2 * sim.NS).
			WithCycles(2).
			Build("Clock", clk)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule the first low phase at the current time", func() {
		engine.EXPECT().CurrentTime().Return(3 * sim.NS)
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e sim.Event) {
			Expect(e.Time()).To(Equal(3 * sim.NS))
			Expect(e.(toggleEvent).level).To(Equal(uint64(0)))
			Expect(e.Handler()).To(BeIdenticalTo(driver))
		})

		driver.Start()
	})

	It("should only start once", func() {
		engine.EXPECT().CurrentTime().Return(sim.VTime(0))
		engine.EXPECT().Schedule(gomock.Any())

		driver.Start()
		driver.Start()
	})

	It("should drive high half a period after low", func() {
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e sim.Event) {
			Expect(e.Time()).To(Equal(6 * sim.NS))
			Expect(e.(toggleEvent).level).To(Equal(uint64(1)))
		})

		Expect(driver.Handle(driver.makeToggle(4*sim.NS, 0))).To(Succeed())
		Expect(clk.Value()).To(Equal(uint64(0)))
	})

	It("should stop after the last cycle", func() {
		engine.EXPECT().Schedule(gomock.Any()).Times(1)

		Expect(driver.Handle(driver.makeToggle(2*sim.NS, 1))).To(Succeed())
		Expect(driver.Cycles()).To(Equal(uint64(1)))
		Expect(driver.Done()).To(BeFalse())

		Expect(driver.Handle(driver.makeToggle(6*sim.NS, 1))).To(Succeed())
		Expect(driver.Cycles()).To(Equal(uint64(2)))
		Expect(driver.Done()).To(BeTrue())
	})

	It("should reject invalid parameters", func() {
		Expect(func() {
			MakeClockBuilder().WithEngine(engine).WithCycles(0).Build("c", clk)
		}).To(Panic())
		Expect(func() {
			MakeClockBuilder().WithEngine(engine).WithHalfPeriod(0).Build("c", clk)
		}).To(Panic())
		Expect(func() {
			MakeClockBuilder().Build("c", clk)
		}).To(Panic())
		Expect(func() {
			MakeClockBuilder().WithEngine(engine).Build("c", nil)
		}).To(Panic())
	})
})

var _ = Describe("ClockDriver on a serial engine", func() {
	It("should alternate low and high for the configured cycles", func() {
		engine := sim.NewSerialEngine()
		clk := signal.NewBit("clk")
		clk.Set(1)

		var got []transition
		recordTransitions(clk, engine, &got)

		driver := MakeClockBuilder().
			WithEngine(engine).
			WithCycles(3).
			Build("Clock", clk)
		driver.Start()

		Expect(engine.Run()).To(Succeed())

		Expect(got).To(Equal([]transition{
			{0, 0}, {1 * sim.NS, 1},
			{2 * sim.NS, 0}, {3 * sim.NS, 1},
			{4 * sim.NS, 0}, {5 * sim.NS, 1},
		}))
		Expect(driver.Done()).To(BeTrue())
		Expect(driver.EndTime()).To(Equal(6 * sim.NS))
		Expect(engine.CurrentTime()).To(Equal(5 * sim.NS))
	})

	It("should honor the start time and frequency", func() {
		engine := sim.NewSerialEngine()
		clk := signal.NewBit("clk")

		var got []transition
		recordTransitions(clk, engine, &got)

		MakeClockBuilder().
			WithEngine(engine).
			WithFreq(100 * sim.MHz).
			WithCycles(2).
			WithStartTime(1 * sim.NS).
			Build("Clock", clk).
			Start()

		Expect(engine.Run()).To(Succeed())

		Expect(got).To(Equal([]transition{
			{6 * sim.NS, 1}, {11 * sim.NS, 0}, {16 * sim.NS, 1},
		}))
	})
})
