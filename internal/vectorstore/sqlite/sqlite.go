package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
    id TEXT NOT NULL,
    collection TEXT NOT NULL,
    document_id TEXT NOT NULL,
    source TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    vector BLOB NOT NULL,
    PRIMARY KEY (collection, id),
    FOREIGN KEY (collection) REFERENCES collections(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_records_document ON records(collection, document_id);
`

// Storage keeps one named collection in a SQLite file. Similarity is
// computed in Go over every vector of the collection.
type Storage struct {
	conn       *sql.DB
	collection string
}

// Open creates the database file and its directory if needed and runs migrations.
func Open(path, collection string) (*Storage, error) {
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Storage{conn: conn, collection: collection}, nil
}

func (s *Storage) Init(ctx context.Context, spec domain.CollectionSpec) error {
	if spec.Dimension <= 0 {
		return errors.New("invalid dimension")
	}
	var model string
	var dimension int
	err := s.conn.QueryRowContext(ctx,
		`SELECT model, dimension FROM collections WHERE name = ?`, s.collection).Scan(&model, &dimension)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.conn.ExecContext(ctx,
			`INSERT INTO collections (name, model, dimension) VALUES (?, ?, ?)`,
			s.collection, spec.Model, spec.Dimension); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read collection: %w", err)
	}
	if model != spec.Model || dimension != spec.Dimension {
		return fmt.Errorf("%w: collection %q holds %s/%d, got %s/%d", domain.ErrEmbeddingMismatch,
			s.collection, model, dimension, spec.Model, spec.Dimension)
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, records []domain.Record) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var dimension int
	if err := tx.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, s.collection).Scan(&dimension); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return errors.New("collection not initialised")
		}
		return fmt.Errorf("failed to read collection: %w", err)
	}
	if err := s.insertRecords(ctx, tx, dimension, records); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// Replace drops the collection and recreates it with records in one
// transaction. On failure the previous collection is left untouched.
func (s *Storage) Replace(ctx context.Context, spec domain.CollectionSpec, records []domain.Record) error {
	if spec.Dimension <= 0 {
		return errors.New("invalid dimension")
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, s.collection); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collections (name, model, dimension) VALUES (?, ?, ?)`,
		s.collection, spec.Model, spec.Dimension); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to create collection: %w", err)
	}
	if err := s.insertRecords(ctx, tx, spec.Dimension, records); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

func (s *Storage) insertRecords(ctx context.Context, tx *sql.Tx, dimension int, records []domain.Record) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, collection, document_id, source, chunk_index, content, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document_id = excluded.document_id,
			source = excluded.source,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()
	for _, r := range records {
		if len(r.Vector) != dimension {
			return errors.New("vector dimension mismatch")
		}
		c := r.Chunk
		if _, err := stmt.ExecContext(ctx, c.ChunkID, s.collection, c.DocumentID, c.Source, c.Index, c.Text, serializeVector(r.Vector)); err != nil {
			return fmt.Errorf("failed to upsert record: %w", err)
		}
	}
	return nil
}

func (s *Storage) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND document_id = ?`, s.collection, documentID); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, document_id, source, chunk_index, content, vector
		FROM records
		WHERE collection = ?
		ORDER BY document_id, chunk_index
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.Source, &c.Index, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, domain.SearchResult{Chunk: c, Score: vectorstore.Cosine(vector, deserializeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return vectorstore.TopK(results, topK), nil
}

// Clear drops the collection and its records.
func (s *Storage) Clear(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, s.collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Count returns the number of records in the collection.
func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, s.collection).Scan(&n)
	return n, err
}

func (s *Storage) Close() error {
	return s.conn.Close()
}

// serializeVector stores components as little-endian float32; retrieval
// quality does not need float64 precision.
func serializeVector(vector []float64) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

func deserializeVector(data []byte) []float64 {
	vector := make([]float64, len(data)/4)
	for i := range vector {
		vector[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return vector
}
