package glimpsecmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	glimpsecmder "github.com/papercomputeco/glimpse/cmd/glimpse"
)

var _ = Describe("NewGlimpseCmd", func() {
	It("registers every subcommand", func() {
		cmd := glimpsecmder.NewGlimpseCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "search", "index", "models", "analytics", "config", "version"))
	})

	It("has the global flags", func() {
		cmd := glimpsecmder.NewGlimpseCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("passes --config-dir through to subcommands", func() {
		dir := GinkgoT().TempDir()

		cmd := glimpsecmder.NewGlimpseCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--config-dir", dir, "config", "list"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring(dir))
	})

	It("prints the version", func() {
		cmd := glimpsecmder.NewGlimpseCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version:"))
	})
})
