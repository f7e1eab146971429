package api

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/retrieval"
	"github.com/papercomputeco/glimpse/pkg/search"
)

var _ = Describe("handleSearchEndpoint", func() {
	var (
		server   *Server
		searcher *fakeSearcher
	)

	BeforeEach(func() {
		searcher = &fakeSearcher{output: &search.Output{
			Query:    "cat",
			Images:   []string{"a.jpg", "c.jpg"},
			Count:    2,
			Warnings: []search.Warning{{Stage: "embedding", ID: "b.jpg", Message: "image could not be decoded"}},
		}}

		var err error
		server, err = NewServer(Config{ListenAddr: ":0", Searcher: searcher}, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	get := func(path string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, path, nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("returns 400 when the query parameter is missing", func() {
		resp := get("/v1/search")
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		Expect(decode[ErrorResponse](resp).Error).To(Equal("query parameter is required"))
	})

	DescribeTable("rejects invalid num_results",
		func(value string) {
			resp := get("/v1/search?query=cat&num_results=" + value)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		},
		Entry("not a number", "abc"),
		Entry("zero", "0"),
		Entry("negative", "-1"),
	)

	It("returns the images and warnings", func() {
		resp := get("/v1/search?query=cat&num_results=10")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		out := decode[search.Output](resp)
		Expect(out.Images).To(Equal([]string{"a.jpg", "c.jpg"}))
		Expect(out.Count).To(Equal(2))
		Expect(out.Warnings).To(HaveLen(1))

		Expect(searcher.query).To(Equal("cat"))
		Expect(searcher.numResults).To(Equal(10))
	})

	It("leaves the result count to the searcher by default", func() {
		get("/v1/search?query=cat")
		Expect(searcher.numResults).To(BeZero())
	})

	DescribeTable("maps search errors to status codes",
		func(err error, status int) {
			searcher.err = err
			resp := get("/v1/search?query=cat")
			Expect(resp.StatusCode).To(Equal(status))
		},
		Entry("capability failure", &retrieval.CapabilityError{Capability: "text embedding", Err: fmt.Errorf("refused")}, fiber.StatusBadGateway),
		Entry("configuration error", &retrieval.ConfigurationError{Component: "metric"}, fiber.StatusInternalServerError),
		Entry("other error", fmt.Errorf("disk gone"), fiber.StatusInternalServerError),
	)
})
