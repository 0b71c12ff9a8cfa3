package tracing_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tbsim/datarecording"
	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/tracing"
)

var _ = Describe("DBTracer", func() {
	var (
		timeTeller *testTimeTeller
		recorder   datarecording.DataRecorder
		dbFile     string
		tracer     *tracing.DBTracer
	)

	BeforeEach(func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		dbFile = path + ".sqlite3"

		var err error
		recorder, err = datarecording.New(path)
		Expect(err).NotTo(HaveOccurred())

		timeTeller = &testTimeTeller{}
		tracer = tracing.NewDBTracer(timeTeller, recorder)
	})

	AfterEach(func() {
		recorder.Close()
	})

	openReader := func() datarecording.DataReader {
		tracer.Terminate()
		Expect(recorder.Close()).To(Succeed())

		reader, err := datarecording.NewReader(dbFile)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(reader.Close)

		return reader
	}

	It("should record signal transitions", func() {
		clk := signal.NewBit("clk")
		bus := signal.New("bus", 8)
		bus.Set(3)

		tracer.TraceSignal(clk)
		tracer.TraceSignal(bus)
		tracer.TraceSignal(clk)

		timeTeller.currentTime = sim.NS
		clk.Set(1)
		clk.Set(1)
		bus.Set(0x1ff)

		timeTeller.currentTime = 2 * sim.NS
		clk.Set(0)

		reader := openReader()

		signals, err := tracing.ReadSignals(context.Background(), reader)
		Expect(err).NotTo(HaveOccurred())
		Expect(signals).To(Equal([]tracing.SignalInfo{
			{Name: "bus", Width: 8},
			{Name: "clk", Width: 1},
		}))

		transitions, err := tracing.ReadTransitions(
			context.Background(), reader, "clk")
		Expect(err).NotTo(HaveOccurred())
		Expect(transitions).To(Equal([]tracing.Transition{
			{Time: 0, Signal: "clk", Value: 0},
			{Time: 1000, Signal: "clk", Value: 1},
			{Time: 2000, Signal: "clk", Value: 0},
		}))

		all, err := tracing.ReadTransitions(context.Background(), reader, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(5))
		Expect(all[3]).To(Equal(
			tracing.Transition{Time: 1000, Signal: "bus", Value: 0xff}))
	})

	It("should record memory writes", func() {
		ram := mem.NewStorage("ram", 64)
		tracer.TraceMemory(ram)

		timeTeller.currentTime = 5 * sim.NS
		Expect(ram.Write(8, []byte{1, 2, 3})).To(Succeed())

		reader := openReader()
		reader.MapTable(tracing.MemWriteTable, tracing.MemoryWrite{})

		rows, total, err := reader.Query(context.Background(),
			tracing.MemWriteTable, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))
		Expect(rows[0]).To(Equal(&tracing.MemoryWrite{
			Time:   5000,
			Memory: "ram",
			Addr:   8,
			Size:   3,
		}))
	})
})
