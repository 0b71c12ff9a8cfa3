package tracing_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/tracing"
)

var _ = Describe("VCDWriter", func() {
	var (
		timeTeller *testTimeTeller
		buf        *bytes.Buffer
		vcd        *tracing.VCDWriter
		clk, bus   *signal.Signal
	)

	BeforeEach(func() {
		timeTeller = &testTimeTeller{}
		buf = new(bytes.Buffer)
		vcd = tracing.NewVCDWriter(buf, timeTeller)

		clk = signal.NewBit("clk")
		bus = signal.New("bus", 8)

		vcd.TraceSignal(clk)
		vcd.TraceSignal(bus)
	})

	It("should dump changes", func() {
		timeTeller.currentTime = sim.NS
		clk.Set(1)
		bus.Set(5)

		timeTeller.currentTime = 2 * sim.NS
		clk.Set(0)

		vcd.Terminate()

		Expect(vcd.Err()).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal(`$version tbsim $end
$timescale 1ps $end
$scope module tb $end
$var wire 1 ! clk $end
$var wire 8 " bus $end
$upscope $end
$enddefinitions $end
#0
$dumpvars
0!
b0 "
$end
#1000
1!
b101 "
#2000
0!
`))
	})

	It("should write the header when nothing changed", func() {
		vcd.Terminate()
		vcd.Terminate()

		Expect(buf.String()).To(ContainSubstring("$enddefinitions $end\n#0\n"))
	})

	It("should refuse signals added after the header", func() {
		clk.Set(1)

		Expect(func() { vcd.TraceSignal(signal.NewBit("late")) }).To(Panic())
	})

	It("should ignore changes after terminating", func() {
		vcd.Terminate()
		size := buf.Len()

		clk.Set(1)

		Expect(buf.Len()).To(Equal(size))
	})

	It("should create files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "wave.vcd")

		w, err := tracing.CreateVCDFile(path, timeTeller)
		Expect(err).NotTo(HaveOccurred())

		s := signal.NewBit("s")
		w.TraceSignal(s)
		s.Set(1)
		w.Terminate()
		Expect(w.Err()).NotTo(HaveOccurred())

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(HaveSuffix("$end\n1!\n"))
	})
})
