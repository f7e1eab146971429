// Package sqlitevec provides a SQLite-backed vector store using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/metric"
	"github.com/papercomputeco/glimpse/pkg/vector"
)

// Store implements vector.Store using SQLite with sqlite-vec. Embeddings live
// in a vec0 virtual table; vec_images maps image identifiers to vec0 rowids
// and its AUTOINCREMENT rowid records insertion order.
type Store struct {
	db     *sql.DB
	metric metric.Metric
	logger *slog.Logger
}

var _ vector.Store = (*Store)(nil)

// Config holds configuration for the sqlite-vec store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint

	// Metric is used by Search. Nil makes Search return vector.ErrNoMetric.
	Metric metric.Metric
}

// NewStore opens (or creates) a sqlite-vec store.
func NewStore(c Config, log *slog.Logger) (*Store, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	log = logger.OrNop(log)

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_images (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			image_id TEXT NOT NULL UNIQUE
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating images table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	log.Info("sqlite-vec vector store initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Store{
		db:     db,
		metric: c.Metric,
		logger: log,
	}, nil
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Insert implements vector.Store. An overwrite keeps the image's original
// insertion position.
func (s *Store) Insert(ctx context.Context, id string, embedding []float32, overwrite bool) error {
	embBlob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serializing embedding for %s: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existingRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM vec_images WHERE image_id = ?`, id,
	).Scan(&existingRowID)

	switch {
	case err == nil:
		if !overwrite {
			return nil
		}

		// vec0 does not support UPDATE
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, existingRowID,
		); err != nil {
			return fmt.Errorf("deleting old embedding for %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
			existingRowID, embBlob,
		); err != nil {
			return fmt.Errorf("re-inserting embedding for %s: %w", id, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		result, err := tx.ExecContext(ctx,
			`INSERT INTO vec_images(image_id) VALUES (?)`, id,
		)
		if err != nil {
			return fmt.Errorf("inserting image %s: %w", id, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, embBlob,
		); err != nil {
			return fmt.Errorf("inserting embedding for %s: %w", id, err)
		}
	default:
		return fmt.Errorf("checking for existing image %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Search implements vector.Store. It scans every stored embedding in
// insertion order and applies the configured metric.
func (s *Store) Search(ctx context.Context, query []float32) ([]string, error) {
	if s.metric == nil {
		return nil, vector.ErrNoMetric
	}

	docs, err := s.scan(ctx, "")
	if err != nil {
		return nil, err
	}

	ids, err := vector.Rank(s.metric, query, docs)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("searched sqlite-vec", "documents", len(docs), "results", len(ids))
	return ids, nil
}

// Get implements vector.Store. Documents are returned in insertion order.
func (s *Store) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	where := fmt.Sprintf("WHERE i.image_id IN (%s)", strings.Join(placeholders, ","))
	return s.scan(ctx, where, args...)
}

func (s *Store) scan(ctx context.Context, where string, args ...any) ([]vector.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.image_id, e.embedding
		FROM vec_images i
		INNER JOIN vec_embeddings e ON e.rowid = i.rowid
		`+where+`
		ORDER BY i.rowid
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var docs []vector.Document
	for rows.Next() {
		var (
			id      string
			embBlob []byte
		)
		if err := rows.Scan(&id, &embBlob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}

		emb, err := deserializeFloat32(embBlob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}
		docs = append(docs, vector.Document{ID: id, Embedding: emb})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return docs, nil
}

// Clear implements vector.Store.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_embeddings`); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_images`); err != nil {
		return fmt.Errorf("deleting images: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("cleared sqlite-vec store")
	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}
