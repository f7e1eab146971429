// Package chroma provides a vector.Store backed by a Chroma collection.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/metric"
	"github.com/papercomputeco/glimpse/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for glimpse embeddings.
	DefaultCollectionName = "glimpse"

	// seqKey is the metadata field holding an embedding's insertion sequence.
	seqKey = "seq"

	apiPrefix = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Store implements vector.Store using Chroma's REST API. Chroma does not keep
// insertion order, so every embedding carries a seq metadata value and Search
// sorts by it before applying the metric.
type Store struct {
	baseURL        string
	collectionName string
	collectionID   string
	metric         metric.Metric
	httpClient     *http.Client
	logger         *slog.Logger

	// insertMu makes the lookup and upsert in Insert atomic per store.
	insertMu sync.Mutex

	seqMu   sync.Mutex
	lastSeq int64
}

var _ vector.Store = (*Store)(nil)

// Config holds configuration for the Chroma store.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Metric is used by Search. Nil makes Search return vector.ErrNoMetric.
	Metric metric.Metric

	// MaxRetries bounds connection attempts at startup. Defaults to 1.
	MaxRetries int

	// RetryDelay is the first backoff delay; it doubles up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewStore connects to Chroma, creating the collection if needed. Connection
// failures are retried with exponential backoff while Chroma starts up.
func NewStore(c Config, log *slog.Logger) (*Store, error) {
	log = logger.OrNop(log)

	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	s := &Store{
		baseURL:        c.URL,
		collectionName: collectionName,
		metric:         c.Metric,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: log,
	}

	attempts := max(c.MaxRetries, 1)
	delay := c.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		collectionID, err := s.getOrCreateCollection(context.Background())
		if err == nil {
			s.collectionID = collectionID
			break
		}
		lastErr = err

		if attempt == attempts {
			return nil, fmt.Errorf("%w: getting or creating collection %q after %d attempts: %w",
				vector.ErrConnection, collectionName, attempts, lastErr)
		}

		log.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}

	log.Info("connected to Chroma",
		"url", c.URL,
		"collection", collectionName,
		"collection_id", s.collectionID,
	)

	return s, nil
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (s *Store) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection
	err := s.do(ctx, http.MethodGet, apiPrefix+"/"+s.collectionName, nil, &collection)
	if err == nil {
		return collection.ID, nil
	}

	err = s.do(ctx, http.MethodPost, apiPrefix, map[string]string{"name": s.collectionName}, &collection)
	if err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}

	return collection.ID, nil
}

func (s *Store) collectionPath(op string) string {
	return fmt.Sprintf("%s/%s/%s", apiPrefix, s.collectionID, op)
}

// do sends a JSON request and decodes the JSON response into out when non-nil.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Insert implements vector.Store. An overwrite keeps the image's original
// insertion sequence.
func (s *Store) Insert(ctx context.Context, id string, embedding []float32, overwrite bool) error {
	s.insertMu.Lock()
	defer s.insertMu.Unlock()

	existing, err := s.get(ctx, []string{id}, []string{"metadatas"})
	if err != nil {
		return err
	}

	seq := s.nextSeq()
	if len(existing.IDs) > 0 {
		if !overwrite {
			return nil
		}
		if len(existing.Metadatas) > 0 {
			if v, ok := seqOf(existing.Metadatas[0]); ok {
				seq = v
			}
		}
	}

	req := chromaUpsertRequest{
		IDs:        []string{id},
		Embeddings: [][]float32{embedding},
		Metadatas:  []map[string]any{{seqKey: seq}},
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("upsert"), req, nil); err != nil {
		return fmt.Errorf("upserting %s: %w", id, err)
	}

	return nil
}

// Search implements vector.Store.
func (s *Store) Search(ctx context.Context, query []float32) ([]string, error) {
	if s.metric == nil {
		return nil, vector.ErrNoMetric
	}

	docs, err := s.Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	ids, err := vector.Rank(s.metric, query, docs)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("searched chroma", "documents", len(docs), "results", len(ids))
	return ids, nil
}

// Get implements vector.Store. A nil ids slice returns the whole collection.
// Documents are returned in insertion order.
func (s *Store) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if ids != nil && len(ids) == 0 {
		return nil, nil
	}

	resp, err := s.get(ctx, ids, []string{"metadatas", "embeddings"})
	if err != nil {
		return nil, err
	}

	type seqDoc struct {
		doc vector.Document
		seq int64
	}
	rows := make([]seqDoc, len(resp.IDs))
	for i, id := range resp.IDs {
		rows[i].doc.ID = id
		if i < len(resp.Embeddings) {
			rows[i].doc.Embedding = resp.Embeddings[i]
		}
		if i < len(resp.Metadatas) {
			rows[i].seq, _ = seqOf(resp.Metadatas[i])
		}
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].seq < rows[b].seq })

	docs := make([]vector.Document, len(rows))
	for i, r := range rows {
		docs[i] = r.doc
	}
	return docs, nil
}

func (s *Store) get(ctx context.Context, ids, include []string) (*chromaGetResponse, error) {
	var resp chromaGetResponse
	req := chromaGetRequest{IDs: ids, Include: include}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("get"), req, &resp); err != nil {
		return nil, fmt.Errorf("getting embeddings: %w", err)
	}
	return &resp, nil
}

// Clear implements vector.Store.
func (s *Store) Clear(ctx context.Context) error {
	resp, err := s.get(ctx, nil, []string{})
	if err != nil {
		return err
	}
	if len(resp.IDs) == 0 {
		return nil
	}

	if err := s.do(ctx, http.MethodPost, s.collectionPath("delete"), chromaDeleteRequest{IDs: resp.IDs}, nil); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}

	s.logger.Debug("cleared chroma collection", "count", len(resp.IDs))
	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return nil
}

// nextSeq returns a strictly increasing microsecond timestamp. Microseconds
// stay exact through the float64 round trip of JSON metadata.
func (s *Store) nextSeq() int64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	seq := time.Now().UnixMicro()
	if seq <= s.lastSeq {
		seq = s.lastSeq + 1
	}
	s.lastSeq = seq
	return seq
}

// seqOf reads the seq metadata value. JSON numbers decode as float64.
func seqOf(md map[string]any) (int64, bool) {
	switch v := md[seqKey].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
