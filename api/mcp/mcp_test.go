package mcp

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	glimpselogger "github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/search"
)

// stubSearcher returns a fixed output.
type stubSearcher struct {
	output *search.Output
	err    error
	calls  int
}

func (s *stubSearcher) Search(_ context.Context, query string, numResults int) (*search.Output, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := *s.output
	out.Query = query
	if numResults > 0 && len(out.Images) > numResults {
		out.Images = out.Images[:numResults]
	}
	out.Count = len(out.Images)
	return &out, nil
}

var _ = Describe("MCP Server", func() {
	Describe("NewServer", func() {
		It("returns an error when the searcher is nil", func() {
			_, err := NewServer(Config{Logger: glimpselogger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("searcher is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Searcher: &stubSearcher{}})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates a noop server without a searcher", func() {
			server, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			server, err := NewServer(Config{Searcher: &stubSearcher{}, Logger: glimpselogger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})
})
