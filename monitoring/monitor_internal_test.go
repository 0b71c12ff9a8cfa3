package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

type sampleComponent struct {
	*sim.ComponentBase

	Level uint64
}

var _ = Describe("Monitor", func() {
	var (
		m       *Monitor
		engine  *sim.SerialEngine
		clk     *signal.Signal
		ram     *mem.Storage
		handler http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		return rec
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		clk = signal.NewBit("clk")
		ram = mem.NewStorage("ram", 256)

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterSignal(clk)
		m.RegisterMemory(ram)
		m.RegisterComponent(&sampleComponent{
			ComponentBase: sim.NewComponentBase("Comp"),
			Level:         3,
		})

		handler = m.Router()
	})

	It("should report the current time", func() {
		rec := get("/api/now")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"now":0,"text":"0ps"}`))
	})

	It("should forget the simulation on reset", func() {
		m.Reset()

		Expect(get("/api/now").Code).To(Equal(http.StatusServiceUnavailable))
		Expect(get("/api/pause").Code).To(Equal(http.StatusServiceUnavailable))
		Expect(get("/api/signal/clk").Code).To(Equal(http.StatusNotFound))
	})

	It("should list signals", func() {
		clk.Set(1)

		rec := get("/api/signals")

		Expect(rec.Body.String()).To(
			MatchJSON(`[{"name":"clk","width":1,"value":1}]`))
	})

	It("should read one signal", func() {
		Expect(get("/api/signal/clk").Body.String()).To(
			MatchJSON(`{"name":"clk","width":1,"value":0}`))
		Expect(get("/api/signal/rst").Code).To(Equal(http.StatusNotFound))
	})

	It("should dump memory", func() {
		Expect(ram.Write(4, []byte("1234"))).To(Succeed())

		rec := get("/api/memory/ram?addr=0x4&len=4")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(
			MatchJSON(`{"name":"ram","addr":4,"data":"31323334"}`))
	})

	It("should reject bad memory ranges", func() {
		Expect(get("/api/memory/ram?addr=250&len=16").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/memory/ram?len=x").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/memory/ram?len=100000").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/memory/rom").Code).To(Equal(http.StatusNotFound))
	})

	It("should serve memory and signals while the simulation writes them", func() {
		big := mem.NewStorage("big", 1<<24)
		m.RegisterMemory(big)

		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(done)

			for i := uint64(0); i < 512; i++ {
				Expect(big.WriteWord(i*4096, uint32(i))).To(Succeed())
				clk.Set(i % 2)
			}
		}()

		for i := 0; i < 64; i++ {
			Expect(get("/api/memory/big?addr=0x100000&len=4").Code).
				To(Equal(http.StatusOK))
			Expect(get("/api/signal/clk").Code).To(Equal(http.StatusOK))
		}

		Eventually(done).Should(BeClosed())
	})

	It("should list components", func() {
		Expect(get("/api/list_components").Body.String()).
			To(MatchJSON(`["Comp"]`))
	})

	It("should serialize a component", func() {
		rec := get("/api/component/Comp")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Level"))
		Expect(get("/api/component/Other").Code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		rec := get("/api/field/" + url.PathEscape("{not json"))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))

		engine.Schedule(sim.NewEventBase(sim.NS, sim.HandlerFunc(
			func(sim.Event) error { return nil })))
		Expect(engine.Run()).To(Succeed())
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("tests", 2)
		bar.IncrementInProgress(1)

		var bars []map[string]any
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
			To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("tests"))
		Expect(bars[0]["in_progress"]).To(BeEquivalentTo(1))

		m.CompleteProgressBar(bar)
		Expect(get("/api/progress").Body.String()).To(MatchJSON(`[]`))
	})

	It("should report resource usage", func() {
		var rsp resourceRsp
		Expect(json.Unmarshal(get("/api/resource").Body.Bytes(), &rsp)).
			To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve on a random port", func() {
		Expect(m.WithPortNumber(80).StartServer()).To(Succeed())
		DeferCleanup(func() { Expect(m.StopServer(context.Background())).To(Succeed()) })

		Expect(m.URL()).To(HavePrefix("http://localhost:"))

		rsp, err := http.Get(m.URL() + "/api/now")
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})

var _ = Describe("ProgressBar", func() {
	It("should move items to finished", func() {
		bar := &ProgressBar{Name: "tests", Total: 3}

		bar.IncrementInProgress(2)
		bar.MoveInProgressToFinished(1)
		bar.MoveInProgressToFinished(5)

		Expect(bar.InProgress).To(Equal(uint64(0)))
		Expect(bar.Finished).To(Equal(uint64(2)))
		Expect(bar.String()).To(HavePrefix("tests: 2/3 (0 running"))
	})
})
