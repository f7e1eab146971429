// Package qdrant provides a vector.Store backed by a Qdrant collection.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	qc "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/metric"
	"github.com/papercomputeco/glimpse/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for glimpse embeddings.
	DefaultCollectionName = "glimpse"

	defaultPort = 6334
	scrollPage  = 256

	idKey  = "image_id"
	seqKey = "seq"
)

// pointNamespace derives deterministic point IDs from image identifiers.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/papercomputeco/glimpse/qdrant"))

// Config holds configuration for the Qdrant store.
type Config struct {
	// Target is the Qdrant gRPC address (e.g., "localhost:6334").
	Target string

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions is the embedding size used when creating the collection.
	Dimensions uint

	APIKey string
	UseTLS bool

	// Metric is used by Search. Nil makes Search return vector.ErrNoMetric.
	Metric metric.Metric
}

// Store implements vector.Store over Qdrant's gRPC API. Point IDs are
// UUIDv5 hashes of the image identifier and a seq payload keeps insertion
// order, which Search restores before applying the metric.
type Store struct {
	client     *qc.Client
	collection string
	dimensions uint
	metric     metric.Metric
	logger     *slog.Logger

	// insertMu makes the lookup and upsert in Insert atomic per store.
	insertMu sync.Mutex

	seqMu   sync.Mutex
	lastSeq int64
}

var _ vector.Store = (*Store)(nil)

// PointID returns the deterministic Qdrant point ID for an image identifier.
func PointID(imageID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(imageID)).String()
}

// ParseTarget splits a "host:port" target. A bare host uses port 6334.
func ParseTarget(target string) (string, int, error) {
	if target == "" {
		return "", 0, errors.New("qdrant target is required")
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

// NewStore connects to Qdrant and creates the collection if it is missing.
func NewStore(ctx context.Context, c Config, log *slog.Logger) (*Store, error) {
	log = logger.OrNop(log)

	host, port, err := ParseTarget(c.Target)
	if err != nil {
		return nil, err
	}

	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qc.NewClient(&qc.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	s := &Store{
		client:     client,
		collection: collection,
		dimensions: c.Dimensions,
		metric:     c.Metric,
		logger:     log,
	}

	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	log.Info("connected to Qdrant",
		"target", c.Target,
		"collection", collection,
		"dimensions", c.Dimensions,
	)

	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
			Size:     uint64(s.dimensions),
			Distance: qc.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.collection, err)
	}
	return nil
}

// Insert implements vector.Store. An overwrite keeps the original seq.
func (s *Store) Insert(ctx context.Context, id string, embedding []float32, overwrite bool) error {
	s.insertMu.Lock()
	defer s.insertMu.Unlock()

	existing, err := s.client.Get(ctx, &qc.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qc.PointId{qc.NewID(PointID(id))},
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("looking up %s: %w", id, err)
	}

	seq := s.nextSeq()
	if len(existing) > 0 {
		if !overwrite {
			return nil
		}
		if v, ok := existing[0].GetPayload()[seqKey]; ok {
			seq = v.GetIntegerValue()
		}
	}

	_, err = s.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qc.PtrOf(true),
		Points: []*qc.PointStruct{{
			Id:      qc.NewID(PointID(id)),
			Vectors: qc.NewVectors(embedding...),
			Payload: qc.NewValueMap(map[string]any{
				idKey:  id,
				seqKey: seq,
			}),
		}},
	})
	if err != nil {
		return fmt.Errorf("upserting %s: %w", id, err)
	}
	return nil
}

// Search implements vector.Store.
func (s *Store) Search(ctx context.Context, query []float32) ([]string, error) {
	if s.metric == nil {
		return nil, vector.ErrNoMetric
	}

	docs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := vector.Rank(s.metric, query, docs)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("searched qdrant", "documents", len(docs), "results", len(ids))
	return ids, nil
}

// Get implements vector.Store. Documents are returned in insertion order.
func (s *Store) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qc.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qc.NewID(PointID(id))
	}

	points, err := s.client.Get(ctx, &qc.GetPoints{
		CollectionName: s.collection,
		Ids:            pointIDs,
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	return toDocuments(points), nil
}

// all scrolls through the whole collection.
func (s *Store) all(ctx context.Context) ([]vector.Document, error) {
	var (
		points []*qc.RetrievedPoint
		offset *qc.PointId
	)
	for {
		page, next, err := s.client.ScrollAndOffset(ctx, &qc.ScrollPoints{
			CollectionName: s.collection,
			Offset:         offset,
			Limit:          qc.PtrOf(uint32(scrollPage)),
			WithPayload:    qc.NewWithPayload(true),
			WithVectors:    qc.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scrolling points: %w", err)
		}
		points = append(points, page...)
		if next == nil {
			break
		}
		offset = next
	}

	return toDocuments(points), nil
}

func toDocuments(points []*qc.RetrievedPoint) []vector.Document {
	type seqDoc struct {
		doc vector.Document
		seq int64
	}
	rows := make([]seqDoc, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		rows = append(rows, seqDoc{
			doc: vector.Document{
				ID:        payload[idKey].GetStringValue(),
				Embedding: p.GetVectors().GetVector().GetData(),
			},
			seq: payload[seqKey].GetIntegerValue(),
		})
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].seq < rows[b].seq })

	docs := make([]vector.Document, len(rows))
	for i, r := range rows {
		docs[i] = r.doc
	}
	return docs
}

// Clear implements vector.Store by dropping and recreating the collection.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("deleting collection %q: %w", s.collection, err)
	}
	return s.ensureCollection(ctx)
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

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
