package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var (
		origSQLite string
		origCwd    string
		tmpDir     string
	)

	BeforeEach(func() {
		origSQLite = os.Getenv("GLIMPSE_SQLITE")
		var err error
		origCwd, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tmpDir = GinkgoT().TempDir()
		Expect(os.Chdir(tmpDir)).To(Succeed())
		Expect(os.Setenv("GLIMPSE_SQLITE", "")).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Setenv("GLIMPSE_SQLITE", origSQLite)).To(Succeed())
		Expect(os.Chdir(origCwd)).To(Succeed())
	})

	It("returns the override unchanged", func() {
		path, err := ResolveSQLitePath("/tmp/explicit.db", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/explicit.db"))
	})

	It("prefers GLIMPSE_SQLITE when set", func() {
		Expect(os.Setenv("GLIMPSE_SQLITE", "/tmp/custom.db")).To(Succeed())

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("uses an index in the working directory when present", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "glimpse.db"), nil, 0o600)).To(Succeed())

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Base(path)).To(Equal("glimpse.db"))
	})

	It("falls back to index.db in the config dir", func() {
		configDir := filepath.Join(tmpDir, "cfg")

		path, err := ResolveSQLitePath("", configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(configDir, "index.db")))

		info, err := os.Stat(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})
})
