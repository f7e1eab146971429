package search_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/imageio"
	"github.com/papercomputeco/glimpse/pkg/retrieval"
	"github.com/papercomputeco/glimpse/pkg/search"
)

type staticLister struct {
	ids []string
	err error
}

func (l staticLister) List() ([]string, error) { return l.ids, l.err }

// echoRunner returns every candidate, optionally with a warning per query.
type echoRunner struct {
	calls    int
	warnings []retrieval.Warning
	err      error
}

func (r *echoRunner) Run(_ context.Context, query string, candidates []string) (*retrieval.Result, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &retrieval.Result{Query: query, Candidates: candidates, Warnings: r.warnings}, nil
}

func images(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("img%02d.png", i)
	}
	return out
}

var _ = Describe("Searcher", func() {
	ctx := context.Background()

	newSearcher := func(l search.Lister, r search.Runner) *search.Searcher {
		s, err := search.New(search.Config{Catalog: l, Pipeline: r})
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	It("requires a catalog and a pipeline", func() {
		_, err := search.New(search.Config{Pipeline: &echoRunner{}})
		Expect(err).To(HaveOccurred())
		_, err = search.New(search.Config{Catalog: staticLister{}})
		Expect(err).To(HaveOccurred())
	})

	It("caps the results at the default of five", func() {
		out, err := newSearcher(staticLister{ids: images(8)}, &echoRunner{}).Search(ctx, "cat", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Images).To(Equal(images(5)))
		Expect(out.Count).To(Equal(5))
		Expect(out.Query).To(Equal("cat"))
	})

	It("caps the results at the requested count", func() {
		out, err := newSearcher(staticLister{ids: images(8)}, &echoRunner{}).Search(ctx, "cat", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Images).To(Equal(images(1)))
	})

	It("returns fewer results when fewer match", func() {
		out, err := newSearcher(staticLister{ids: images(3)}, &echoRunner{}).Search(ctx, "cat", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Count).To(Equal(3))
	})

	It("returns an empty list for an empty catalog without running the pipeline", func() {
		runner := &echoRunner{}
		out, err := newSearcher(staticLister{}, runner).Search(ctx, "cat", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Images).To(BeEmpty())
		Expect(out.Images).NotTo(BeNil())
		Expect(runner.calls).To(Equal(0))
	})

	It("returns an empty list for an empty query", func() {
		runner := &echoRunner{}
		out, err := newSearcher(staticLister{ids: images(3)}, runner).Search(ctx, "", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Count).To(BeZero())
		Expect(runner.calls).To(Equal(0))
	})

	It("reports pipeline warnings", func() {
		runner := &echoRunner{warnings: []retrieval.Warning{{
			Stage:   "embedding",
			ID:      "bad.png",
			Message: "image could not be decoded",
			Err:     imageio.ErrDecode,
		}}}
		out, err := newSearcher(staticLister{ids: images(2)}, runner).Search(ctx, "cat", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Warnings).To(ConsistOf(search.Warning{
			Stage:   "embedding",
			ID:      "bad.png",
			Message: "image could not be decoded: image could not be decoded",
		}))
	})

	It("propagates catalog and pipeline errors", func() {
		_, err := newSearcher(staticLister{err: errors.New("disk gone")}, &echoRunner{}).Search(ctx, "cat", 5)
		Expect(err).To(MatchError("disk gone"))

		_, err = newSearcher(staticLister{ids: images(1)}, &echoRunner{err: retrieval.ErrCapability}).Search(ctx, "cat", 5)
		Expect(err).To(MatchError(retrieval.ErrCapability))
	})
})
