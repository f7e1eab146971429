// Package indexer provides an asynchronous worker pool that embeds catalog
// images ahead of any search.
//
// The pool decouples embedding from the search hot path so that the first
// query over a large image folder does not pay for embedding every image.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/retrieval"
)

// ErrPoolClosed is returned when work is submitted after Close.
var ErrPoolClosed = errors.New("indexer pool closed")

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 256
	defaultBatchSize    uint = 16
)

// Indexer embeds a batch of images. *retrieval.EmbeddingStage implements it.
type Indexer interface {
	Index(ctx context.Context, ids []string) ([]string, []retrieval.Warning, error)
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Indexer embeds the images.
	Indexer Indexer

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// BatchSize caps how many queued images a worker embeds in one call.
	BatchSize uint

	// Timeout bounds each batch. Zero means no limit.
	Timeout time.Duration

	Logger *slog.Logger
}

// Stats counts processed images.
type Stats struct {
	Indexed uint64
	Skipped uint64
	Failed  uint64
	Dropped uint64
}

// Pool processes index jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan string
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards closed and the send side of queue.
	mu     sync.RWMutex
	closed bool

	indexed atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Indexer == nil {
		return nil, fmt.Errorf("indexer pool: missing indexer")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		config: c,
		queue:  make(chan string, c.QueueSize),
		logger: logger.OrNop(c.Logger),
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits an image for indexing.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the image being dropped.
func (p *Pool) Enqueue(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		p.logger.Warn("image not queued, pool closed", "id", id)
		return false
	}

	select {
	case p.queue <- id:
		p.logger.Debug("image queued", "id", id)
		return true
	default:
		p.dropped.Add(1)
		p.logger.Error("image not queued, queue full, image dropped", "id", id)
		return false
	}
}

// Submit queues an image, waiting for room in the queue instead of dropping
// it. Returns ErrPoolClosed after Close, or ctx's error if ctx ends first.
func (p *Pool) Submit(ctx context.Context, id string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- id:
		p.logger.Debug("image queued", "id", id)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitAll submits ids in order with Submit and returns how many were queued.
func (p *Pool) SubmitAll(ctx context.Context, ids []string) (int, error) {
	for i, id := range ids {
		if err := p.Submit(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}

// Close signals workers to stop and waits for in-flight jobs to drain. Close
// waits for pending Submit calls and is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns the counters so far.
func (p *Pool) Stats() Stats {
	return Stats{
		Indexed: p.indexed.Load(),
		Skipped: p.skipped.Load(),
		Failed:  p.failed.Load(),
		Dropped: p.dropped.Load(),
	}
}

// worker is the inner worker thread that continuously pulls images off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("index worker started", "worker_id", id)

	for first := range p.queue {
		p.processBatch(p.collect(first))
	}

	p.logger.Debug("index worker stopped", "worker_id", id)
}

// collect takes first plus whatever is already queued, up to BatchSize.
func (p *Pool) collect(first string) []string {
	batch := []string{first}
	for uint(len(batch)) < p.config.BatchSize {
		select {
		case id, ok := <-p.queue:
			if !ok {
				return batch
			}
			batch = append(batch, id)
		default:
			return batch
		}
	}
	return batch
}

// processBatch embeds a batch. Errors are logged but not returned: a failed
// batch is embedded again on demand by the next search.
func (p *Pool) processBatch(batch []string) {
	ctx := context.Background()
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	indexed, warnings, err := p.config.Indexer.Index(ctx, batch)
	if err != nil {
		p.failed.Add(uint64(len(batch)))
		p.logger.Error("indexing batch failed", "size", len(batch), "error", err)
		return
	}

	for _, w := range warnings {
		p.logger.Warn("image skipped", "id", w.ID, "reason", w.Message, "error", w.Err)
	}

	p.indexed.Add(uint64(len(indexed)))
	p.skipped.Add(uint64(len(warnings)))
	p.logger.Info("images indexed", "count", len(indexed), "skipped", len(warnings))
}
