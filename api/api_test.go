package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/cache"
	"github.com/papercomputeco/glimpse/pkg/clicklog"
	"github.com/papercomputeco/glimpse/pkg/clicklog/memory"
	glimpselogger "github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/search"
	testutils "github.com/papercomputeco/glimpse/pkg/utils/test"
)

// fakeSearcher returns a fixed output and records its arguments.
type fakeSearcher struct {
	output     *search.Output
	err        error
	query      string
	numResults int
}

func (f *fakeSearcher) Search(_ context.Context, query string, numResults int) (*search.Output, error) {
	f.query = query
	f.numResults = numResults
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

// recordingPublisher keeps every published click.
type recordingPublisher struct {
	events []*clicklog.ClickEvent
	err    error
}

func (r *recordingPublisher) PublishClick(_ context.Context, e *clicklog.ClickEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func decode[T any](resp *http.Response) T {
	var out T
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(body, &out)).To(Succeed())
	return out
}

var _ = Describe("Server", func() {
	var (
		server   *Server
		searcher *fakeSearcher
		clicks   *recordingPublisher
		store    *testutils.MockStore
		c        *cache.Cache
	)

	BeforeEach(func() {
		searcher = &fakeSearcher{output: &search.Output{Query: "cat", Images: []string{"a.jpg"}, Count: 1}}
		clicks = &recordingPublisher{}
		store = testutils.NewMockStore()
		c = cache.New(cache.Options{})

		var err error
		server, err = NewServer(Config{
			ListenAddr:    ":0",
			Searcher:      searcher,
			Clicks:        clicks,
			Store:         store,
			Cache:         c,
			ResultOptions: []int{1, 5, 10},
		}, glimpselogger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a searcher", func() {
		_, err := NewServer(Config{}, nil)
		Expect(err).To(MatchError("searcher is required"))
	})

	It("answers ping", func() {
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(decode[string](resp)).To(Equal("pong"))
	})

	It("serves the result options", func() {
		req, _ := http.NewRequest(http.MethodGet, "/v1/options", nil)
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(decode[map[string][]int](resp)).To(HaveKeyWithValue("result_options", []int{1, 5, 10}))
	})

	Describe("POST /v1/clicks", func() {
		post := func(body string) *http.Response {
			req, _ := http.NewRequest(http.MethodPost, "/v1/clicks", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("publishes a click event", func() {
			resp := post(`{"image":"images/cat.jpg","query":"a cat","rank":2}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusAccepted))
			Expect(decode[map[string]string](resp)).To(HaveKey("event_id"))

			Expect(clicks.events).To(HaveLen(1))
			Expect(clicks.events[0].Image).To(Equal("images/cat.jpg"))
			Expect(clicks.events[0].Query).To(Equal("a cat"))
			Expect(clicks.events[0].Rank).To(Equal(2))
			Expect(clicks.events[0].Source.Client).To(Equal("api"))
		})

		It("rejects clicks without an image", func() {
			resp := post(`{"query":"a cat"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(clicks.events).To(BeEmpty())
		})

		It("reports publisher failures", func() {
			clicks.err = errors.New("broker down")
			resp := post(`{"image":"cat.jpg"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadGateway))
		})
	})

	Describe("GET /v1/analytics", func() {
		get := func(srv *Server, path string) *http.Response {
			req, _ := http.NewRequest(http.MethodGet, path, nil)
			resp, err := srv.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("is not found when analytics are disabled", func() {
			resp := get(server, "/v1/analytics")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		Context("with a click sink", func() {
			var srv *Server

			BeforeEach(func() {
				sink := memory.NewSink()
				var err error
				srv, err = NewServer(Config{
					Searcher:  searcher,
					Clicks:    clicklog.NewFanout(clicks, sink),
					Analytics: sink,
				}, glimpselogger.Nop())
				Expect(err).NotTo(HaveOccurred())
			})

			click := func(image, query string) {
				body := `{"image":"` + image + `","query":"` + query + `"}`
				req, _ := http.NewRequest(http.MethodPost, "/v1/clicks", strings.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				resp, err := srv.app.Test(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(fiber.StatusAccepted))
			}

			It("counts recorded clicks by query and image", func() {
				click("cat1.jpg", "cat")
				click("cat2.jpg", "cat")
				click("cat1.jpg", "kitten")

				resp := get(srv, "/v1/analytics")
				Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

				a := decode[clicklog.Analytics](resp)
				Expect(a.TotalClicks).To(Equal(int64(3)))
				Expect(a.TopQueries).To(Equal([]clicklog.Count{
					{Key: "cat", Clicks: 2},
					{Key: "kitten", Clicks: 1},
				}))
				Expect(a.TopImages).To(Equal([]clicklog.Count{
					{Key: "cat1.jpg", Clicks: 2},
					{Key: "cat2.jpg", Clicks: 1},
				}))
				Expect(clicks.events).To(HaveLen(3))
			})

			It("caps the lists at the limit", func() {
				click("cat1.jpg", "cat")
				click("dog.jpg", "dog")

				a := decode[clicklog.Analytics](get(srv, "/v1/analytics?limit=1"))
				Expect(a.TopQueries).To(HaveLen(1))
				Expect(a.TopImages).To(HaveLen(1))
			})

			It("rejects a non-positive limit", func() {
				resp := get(srv, "/v1/analytics?limit=0")
				Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			})
		})
	})

	Describe("index", func() {
		It("reports cache stats", func() {
			c.Put("a.jpg", []float32{1})
			_, _ = c.GetOrCompute(context.Background(), []string{"a.jpg"}, nil)

			req, _ := http.NewRequest(http.MethodGet, "/v1/index/stats", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			stats := decode[IndexStats](resp)
			Expect(stats.CacheEntries).To(Equal(1))
			Expect(stats.CacheHits).To(Equal(uint64(1)))
		})

		It("clears the store and the cache", func() {
			c.Put("a.jpg", []float32{1})

			req, _ := http.NewRequest(http.MethodDelete, "/v1/index", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))
			Expect(store.Cleared).To(BeTrue())
			Expect(c.Len()).To(BeZero())
		})
	})
})
