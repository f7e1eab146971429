package indexer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/indexer"
	"github.com/papercomputeco/glimpse/pkg/retrieval"
)

// recordingIndexer records every batch and can be told to fail or to block.
type recordingIndexer struct {
	mu      sync.Mutex
	batches [][]string
	skip    map[string]bool
	fail    bool
	block   chan struct{}
}

func (r *recordingIndexer) Index(_ context.Context, ids []string) ([]string, []retrieval.Warning, error) {
	if r.block != nil {
		<-r.block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]string(nil), ids...))

	if r.fail {
		return nil, nil, errors.New("backend down")
	}

	var (
		indexed  []string
		warnings []retrieval.Warning
	)
	for _, id := range ids {
		if r.skip[id] {
			warnings = append(warnings, retrieval.Warning{ID: id, Message: "image could not be decoded"})
			continue
		}
		indexed = append(indexed, id)
	}
	return indexed, warnings, nil
}

func (r *recordingIndexer) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

var _ = Describe("Pool", func() {
	It("requires an indexer", func() {
		_, err := indexer.NewPool(&indexer.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("indexes every queued image before Close returns", func() {
		idx := &recordingIndexer{skip: map[string]bool{"bad.png": true}}
		pool, err := indexer.NewPool(&indexer.Config{Indexer: idx, NumWorkers: 3})
		Expect(err).NotTo(HaveOccurred())

		ids := []string{"a.png", "b.png", "bad.png", "c.png"}
		for _, id := range ids {
			Expect(pool.Enqueue(id)).To(BeTrue())
		}
		pool.Close()

		Expect(idx.seen()).To(ConsistOf(ids))
		Expect(pool.Stats()).To(Equal(indexer.Stats{Indexed: 3, Skipped: 1}))
	})

	It("drops images when the queue is full", func() {
		idx := &recordingIndexer{block: make(chan struct{})}
		pool, err := indexer.NewPool(&indexer.Config{Indexer: idx, NumWorkers: 1, QueueSize: 1, BatchSize: 1})
		Expect(err).NotTo(HaveOccurred())

		// One image is held by the blocked worker and one sits in the queue.
		Expect(pool.Enqueue("a.png")).To(BeTrue())

		accepted := 0
		for _, id := range []string{"b.png", "c.png", "d.png"} {
			if pool.Enqueue(id) {
				accepted++
			}
		}
		Expect(accepted).To(BeNumerically("<=", 2))
		Expect(pool.Stats().Dropped).To(BeNumerically(">=", 1))

		close(idx.block)
		pool.Close()
	})

	It("counts failed batches", func() {
		idx := &recordingIndexer{fail: true}
		pool, err := indexer.NewPool(&indexer.Config{Indexer: idx, NumWorkers: 1})
		Expect(err).NotTo(HaveOccurred())

		pool.Enqueue("a.png")
		pool.Close()

		Expect(pool.Stats().Failed).To(Equal(uint64(1)))
		Expect(pool.Stats().Indexed).To(BeZero())
	})

	It("refuses work after Close", func() {
		pool, err := indexer.NewPool(&indexer.Config{Indexer: &recordingIndexer{}})
		Expect(err).NotTo(HaveOccurred())
		pool.Close()

		Expect(pool.Enqueue("late.jpg")).To(BeFalse())
		Expect(pool.Submit(context.Background(), "late.jpg")).To(MatchError(indexer.ErrPoolClosed))
		Expect(pool.Stats().Dropped).To(Equal(uint64(1)))

		pool.Close()
	})

	It("queues every submitted image beyond the queue size", func() {
		idx := &recordingIndexer{block: make(chan struct{})}
		pool, err := indexer.NewPool(&indexer.Config{Indexer: idx})
		Expect(err).NotTo(HaveOccurred())

		ids := make([]string, 1000)
		for i := range ids {
			ids[i] = fmt.Sprintf("img%04d.jpg", i)
		}

		done := make(chan int)
		go func() {
			defer GinkgoRecover()
			n, err := pool.SubmitAll(context.Background(), ids)
			Expect(err).NotTo(HaveOccurred())
			done <- n
		}()

		Consistently(done, 50*time.Millisecond).ShouldNot(Receive())
		close(idx.block)
		Eventually(done).Should(Receive(Equal(len(ids))))
		pool.Close()

		Expect(idx.seen()).To(ConsistOf(ids))
		Expect(pool.Stats()).To(Equal(indexer.Stats{Indexed: 1000}))
	})

	It("stops submitting when the context ends", func() {
		idx := &recordingIndexer{block: make(chan struct{})}
		pool, err := indexer.NewPool(&indexer.Config{Indexer: idx, NumWorkers: 1, QueueSize: 1, BatchSize: 1})
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		n, err := pool.SubmitAll(ctx, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"})
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(n).To(BeNumerically("<", 4))

		close(idx.block)
		pool.Close()
	})
})
