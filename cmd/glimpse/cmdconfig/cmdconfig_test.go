package cmdconfig_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/glimpse/cmd/glimpse/cmdconfig"
	"github.com/papercomputeco/glimpse/pkg/config"
)

func newCmd(configDir string, keys []string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config-dir", configDir, "")
	cmd.Flags().Bool("debug", false, "")
	config.AddFlags(cmd, config.Flags, keys)
	return cmd
}

var _ = Describe("Load", func() {
	var configDir string

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		GinkgoT().Setenv("GLIMPSE_SQLITE", "")
	})

	It("returns defaults when no config file exists", func() {
		cmd := newCmd(configDir, config.PipelineFlags)

		cfg, err := cmdconfig.Load(cmd, config.PipelineFlags)
		Expect(err).NotTo(HaveOccurred())

		d := config.NewDefaultConfig()
		Expect(cfg.Images.Folder).To(Equal(d.Images.Folder))
		Expect(cfg.Metric.Threshold).To(Equal(d.Metric.Threshold))
		Expect(cfg.VectorStore.Provider).To(Equal(d.VectorStore.Provider))
	})

	It("reads values from config.toml", func() {
		cfger, err := config.NewConfiger(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfger.SetConfigValue("images.folder", "/photos")).To(Succeed())

		cmd := newCmd(configDir, config.PipelineFlags)
		cfg, err := cmdconfig.Load(cmd, config.PipelineFlags)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Images.Folder).To(Equal("/photos"))
	})

	It("lets flags override config.toml", func() {
		cfger, err := config.NewConfiger(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfger.SetConfigValue("images.folder", "/photos")).To(Succeed())

		cmd := newCmd(configDir, config.PipelineFlags)
		Expect(cmd.Flags().Set("images", "/elsewhere")).To(Succeed())

		cfg, err := cmdconfig.Load(cmd, config.PipelineFlags)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Images.Folder).To(Equal("/elsewhere"))
	})

	It("places a sqlite index in the config dir when no path is set", func() {
		cmd := newCmd(configDir, config.PipelineFlags)
		Expect(cmd.Flags().Set("vector-store-provider", "sqlite")).To(Succeed())

		cfg, err := cmdconfig.Load(cmd, config.PipelineFlags)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.VectorStore.SQLitePath).To(Equal(filepath.Join(configDir, "index.db")))
	})

	It("keeps an explicit sqlite path", func() {
		cmd := newCmd(configDir, config.PipelineFlags)
		Expect(cmd.Flags().Set("vector-store-provider", "sqlite")).To(Succeed())
		Expect(cmd.Flags().Set("sqlite", "/tmp/my.db")).To(Succeed())

		cfg, err := cmdconfig.Load(cmd, config.PipelineFlags)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.VectorStore.SQLitePath).To(Equal("/tmp/my.db"))
	})
})

var _ = Describe("Logger", func() {
	It("returns a logger", func() {
		cmd := newCmd(os.TempDir(), nil)
		Expect(cmdconfig.Logger(cmd)).NotTo(BeNil())
	})
})
