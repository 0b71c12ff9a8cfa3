package hostif_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tbsim/hostif"
)

var _ = Describe("OpenSerialConsole", func() {
	It("should fail when the device does not exist", func() {
		dev := filepath.Join(GinkgoT().TempDir(), "ttyNONE")

		port, err := hostif.OpenSerialConsole(dev, 115200)

		Expect(err).To(HaveOccurred())
		Expect(port).To(BeNil())
	})
})
