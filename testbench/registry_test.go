package testbench_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tbsim/testbench"
)

var _ = Describe("Registry", func() {
	var reg *testbench.Registry

	noop := func(p *testbench.Process, dut testbench.DUT) error { return nil }

	BeforeEach(func() {
		reg = testbench.NewRegistry()
	})

	It("should keep tests in registration order", func() {
		reg.Register(testbench.Test{Name: "b", Func: noop})
		reg.Register(testbench.Test{Name: "a", Func: noop})

		tests := reg.Tests()
		Expect(tests).To(HaveLen(2))
		Expect(tests[0].Name).To(Equal("b"))
		Expect(tests[1].Name).To(Equal("a"))
		Expect(reg.Names()).To(Equal([]string{"a", "b"}))
	})

	It("should look up tests by name", func() {
		reg.Register(testbench.Test{Name: "a", Doc: "does a", Func: noop})

		t, found := reg.Lookup("a")
		Expect(found).To(BeTrue())
		Expect(t.Doc).To(Equal("does a"))

		_, found = reg.Lookup("b")
		Expect(found).To(BeFalse())
	})

	It("should reject invalid tests", func() {
		Expect(func() { reg.Register(testbench.Test{Func: noop}) }).To(Panic())
		Expect(func() { reg.Register(testbench.Test{Name: "a"}) }).To(Panic())

		reg.Register(testbench.Test{Name: "a", Func: noop})
		Expect(func() {
			reg.Register(testbench.Test{Name: "a", Func: noop})
		}).To(Panic())
	})
})
