package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	glimpselogger "github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/search"
)

var _ = Describe("image_search tool", func() {
	var (
		server   *Server
		searcher *stubSearcher
		ctx      context.Context
	)

	BeforeEach(func() {
		searcher = &stubSearcher{output: &search.Output{Images: []string{"a.jpg", "c.jpg"}}}
		ctx = context.Background()

		var err error
		server, err = NewServer(Config{Searcher: searcher, Logger: glimpselogger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns structured and text results", func() {
		result, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "cat", NumResults: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())
		Expect(output.Images).To(Equal([]string{"a.jpg"}))
		Expect(output.Count).To(Equal(1))

		Expect(result.Content).To(HaveLen(1))
		text, ok := result.Content[0].(*mcp.TextContent)
		Expect(ok).To(BeTrue())

		var decoded search.Output
		Expect(json.Unmarshal([]byte(text.Text), &decoded)).To(Succeed())
		Expect(decoded.Query).To(Equal("cat"))
	})

	It("rejects an empty query without searching", func() {
		result, _, err := server.handleSearch(ctx, nil, SearchInput{})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
		Expect(searcher.calls).To(BeZero())
	})

	It("reports search failures as tool errors", func() {
		searcher.err = errors.New("clip server unreachable")
		result, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "cat"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
		text := result.Content[0].(*mcp.TextContent)
		Expect(text.Text).To(ContainSubstring("clip server unreachable"))
	})
})
