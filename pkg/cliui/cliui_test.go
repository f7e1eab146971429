package cliui_test

import (
	"bytes"
	"errors"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/cliui"
)

var _ = Describe("cliui", func() {
	It("formats durations", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})

	It("marks errors", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})

	It("returns the step's error", func() {
		err := cliui.Step(io.Discard, "indexing", func() error { return errors.New("boom") })
		Expect(err).To(MatchError("boom"))
	})

	It("ends the step with a checkmark line", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "indexing", func() error { return nil })).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark + " indexing"))
		Expect(buf.String()).To(HaveSuffix("\n"))
	})

	It("does not treat a buffer as a terminal", func() {
		Expect(cliui.IsTerminal(&bytes.Buffer{})).To(BeFalse())
	})

	It("renders markdown", func() {
		out, err := cliui.RenderMarkdown("# Results\n\n1. `a.jpg`\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("a.jpg"))
	})
})
