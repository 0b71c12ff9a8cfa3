package hostif_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tbsim/hostif"
	"github.com/sarchlab/tbsim/loader"
	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/sim"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("unplugged")
}

var _ = Describe("HostInterface", func() {
	const (
		toHost   = 0x200
		hostHalt = 0x204
	)

	var (
		ram     *mem.Storage
		console *bytes.Buffer
		halts   []uint32
		engine  *sim.SerialEngine
		h       *hostif.HostInterface
	)

	BeforeEach(func() {
		ram = mem.NewStorage("ram", 4096)
		console = new(bytes.Buffer)
		halts = nil
		engine = sim.NewSerialEngine()
		h = hostif.MakeBuilder().
			WithAddresses(toHost, hostHalt).
			WithConsole(console).
			WithTimeTeller(engine).
			WithHaltHandler(func(code uint32) { halts = append(halts, code) }).
			Build("HostIF", ram)
	})

	It("should print characters stored to tohost", func() {
		for _, c := range []byte("Hello\n") {
			Expect(ram.WriteWord(toHost, uint32(c))).To(Succeed())
		}

		Expect(console.String()).To(Equal("Hello\n"))
		Expect(h.Output()).To(Equal("Hello\n"))
	})

	It("should ignore writes elsewhere", func() {
		Expect(ram.Write(0, []byte("abc"))).To(Succeed())
		Expect(ram.WriteWord(hostHalt, 0)).To(Succeed())

		Expect(h.Output()).To(BeEmpty())
		halted, _, _ := h.Halted()
		Expect(halted).To(BeFalse())
	})

	It("should halt once on a non-zero hosthalt store", func() {
		Expect(ram.WriteWord(hostHalt, 1)).To(Succeed())
		Expect(ram.WriteWord(hostHalt, 2)).To(Succeed())

		halted, code, _ := h.Halted()
		Expect(halted).To(BeTrue())
		Expect(code).To(Equal(uint32(1)))
		Expect(halts).To(Equal([]uint32{1}))
	})

	It("should see stores that cover both words", func() {
		Expect(ram.Write(toHost, []byte{'x', 0, 0, 0, 3, 0, 0, 0})).To(Succeed())

		Expect(h.Output()).To(Equal("x"))
		_, code, _ := h.Halted()
		Expect(code).To(Equal(uint32(3)))
	})

	It("should keep the first console error", func() {
		ram2 := mem.NewStorage("ram", 4096)
		h2 := hostif.MakeBuilder().
			WithAddresses(toHost, hostHalt).
			WithConsole(failingWriter{}).
			Build("HostIF", ram2)

		Expect(ram2.WriteWord(toHost, 'a')).To(Succeed())

		Expect(h2.ConsoleErr()).To(MatchError("unplugged"))
		Expect(h2.Output()).To(Equal("a"))
	})

	It("should take addresses from an image", func() {
		img := loader.Image{Symbols: map[string]uint64{
			loader.SymToHost:   0x10,
			loader.SymHostHalt: 0x14,
		}}
		ram2 := mem.NewStorage("ram", 64)
		h2 := hostif.MakeBuilder().WithImage(img).Build("HostIF", ram2)

		Expect(ram2.WriteWord(0x10, 'z')).To(Succeed())
		Expect(h2.Output()).To(Equal("z"))
	})

	It("should reject incomplete configuration", func() {
		Expect(func() {
			hostif.MakeBuilder().Build("HostIF", ram)
		}).To(Panic())
		Expect(func() {
			hostif.MakeBuilder().WithImage(loader.Image{}).Build("HostIF", ram)
		}).To(Panic())
		Expect(func() {
			hostif.MakeBuilder().WithAddresses(4, 4).Build("HostIF", ram)
		}).To(Panic())
	})
})
