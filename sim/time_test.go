package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VTime", func() {
	DescribeTable("parsing",
		func(in string, want VTime) {
			got, err := ParseTime(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("nanoseconds", "1ns", 1*NS),
		Entry("fraction", "2.5us", 2500*NS),
		Entry("space before unit", "10 ps", 10*PS),
		Entry("upper case", "3NS", 3*NS),
		Entry("seconds", "1s", S),
	)

	DescribeTable("rejecting",
		func(in string) {
			_, err := ParseTime(in)
			Expect(err).To(MatchError(ErrInvalidTime))
		},
		Entry("empty", ""),
		Entry("no unit", "5"),
		Entry("bad unit", "5xs"),
		Entry("negative", "-1ns"),
		Entry("sub-picosecond", "0.5ps"),
		Entry("two dots", "1.2.3ns"),
	)

	It("should print in the largest even unit", func() {
		Expect((5 * NS).String()).To(Equal("5ns"))
		Expect((1500 * PS).String()).To(Equal("1500ps"))
		Expect((2 * MS).String()).To(Equal("2ms"))
		Expect(VTime(0).String()).To(Equal("0ps"))
	})
})

var _ = Describe("Freq", func() {
	It("should get period", func() {
		Expect((1 * GHz).Period()).To(Equal(1 * NS))
		Expect((100 * MHz).Period()).To(Equal(10 * NS))
	})

	It("should panic on zero frequency", func() {
		Expect(func() { Freq(0).Period() }).To(Panic())
	})

	It("should get this tick", func() {
		f := 1 * GHz
		Expect(f.ThisTick(3 * NS)).To(Equal(3 * NS))
		Expect(f.ThisTick(3*NS + 1)).To(Equal(4 * NS))
	})

	It("should get the next tick", func() {
		f := 1 * GHz
		Expect(f.NextTick(3 * NS)).To(Equal(4 * NS))
		Expect(f.NextTick(3*NS + 500)).To(Equal(4 * NS))
	})

	It("should count cycles", func() {
		f := 100 * MHz
		Expect(f.Cycle(95 * NS)).To(Equal(uint64(9)))
		Expect(f.NCyclesLater(3, 12*NS)).To(Equal(50 * NS))
		Expect(f.HalfTick(10 * NS)).To(Equal(15 * NS))
	})
})
