package testbench_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/testbench"
)

var _ = Describe("Runner", func() {
	var (
		mockCtrl *gomock.Controller
		reg      *testbench.Registry
		duts     []*fakeDUT
		runner   *testbench.Runner
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		duts = nil

		reg = testbench.NewRegistry()
		reg.Register(testbench.Test{
			Name: "passes",
			Func: func(p *testbench.Process, dut testbench.DUT) error {
				p.Timer(2 * sim.NS)
				return nil
			},
		})
		reg.Register(testbench.Test{
			Name: "fails",
			Func: func(p *testbench.Process, dut testbench.DUT) error {
				p.Timer(sim.NS)
				return errors.New("boom")
			},
		})

		runner = testbench.NewRunner(reg,
			func(string) (testbench.DUT, error) {
				d := newFakeDUT()
				duts = append(duts, d)

				return d, nil
			})
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run every test on a fresh design", func() {
		results, err := runner.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))

		Expect(results[0].Name).To(Equal("passes"))
		Expect(results[0].Passed).To(BeTrue())
		Expect(results[0].SimTime).To(Equal(2 * sim.NS))

		Expect(results[1].Name).To(Equal("fails"))
		Expect(results[1].Passed).To(BeFalse())
		Expect(results[1].Err).To(MatchError("boom"))
		Expect(results[1].SimTime).To(Equal(sim.NS))

		Expect(duts).To(HaveLen(2))
		Expect(duts[0]).NotTo(BeIdenticalTo(duts[1]))
		Expect(duts[0].terminated).To(BeTrue())
		Expect(duts[1].terminated).To(BeTrue())
	})

	It("should run selected tests", func() {
		results, err := runner.Run(context.Background(), "fails")

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Name).To(Equal("fails"))
	})

	It("should reject unknown tests", func() {
		_, err := runner.Run(context.Background(), "nope")

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(`unknown test "nope"`))
		Expect(duts).To(BeEmpty())
	})

	It("should report progress", func() {
		bar := NewMockProgressBar(mockCtrl)
		bar.EXPECT().IncrementInProgress(uint64(1)).Times(2)
		bar.EXPECT().MoveInProgressToFinished(uint64(1)).Times(2)

		_, err := runner.WithProgressBar(bar).Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
	})

	It("should report a factory failure", func() {
		runner = testbench.NewRunner(reg,
			func(string) (testbench.DUT, error) {
				return nil, errors.New("no design")
			})

		results, err := runner.Run(context.Background(), "passes")

		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Passed).To(BeFalse())
		Expect(results[0].Err).To(MatchError(ContainSubstring("no design")))
	})
})
