package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/convosol/docchat/internal/models"
)

type PGVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	// Lists is the ivfflat cluster count; larger corpora want more lists.
	Lists int
}

// PGVectorStore backs the vector store with a pgvector ivfflat index,
// the variant to reach for once a brute-force scan stops being cheap.
// Vectors are unit-normalized on the way in and at query time, so the
// index's cosine distance ordering matches true cosine similarity.
//
// Add buffers records locally; Persist writes the whole batch in one
// transaction, so a crash mid-ingestion leaves the table untouched.
type PGVectorStore struct {
	config  PGVectorConfig
	pool    *pgxpool.Pool
	pending []models.ChunkRecord
	count   int
}

func NewPGVectorStore(config PGVectorConfig) (*PGVectorStore, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.Lists == 0 {
		config.Lists = 100
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &PGVectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}
	return vs, nil
}

func (vs *PGVectorStore) initialize() error {
	ctx := context.Background()

	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	// pos orders rows by insertion so equal distances rank deterministically
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			pos BIGSERIAL,
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = %d)`,
		vs.config.TableName, vs.config.TableName, vs.config.Lists)

	if _, err := vs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	row := vs.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", vs.config.TableName))
	if err := row.Scan(&vs.count); err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}
	return nil
}

func (vs *PGVectorStore) Add(record models.ChunkRecord) error {
	if len(record.Embedding) != vs.config.VectorDim {
		return &DimensionMismatchError{RecordID: record.ID, Got: len(record.Embedding), Want: vs.config.VectorDim}
	}
	record.Embedding = normalize(record.Embedding)
	vs.pending = append(vs.pending, record)
	return nil
}

func (vs *PGVectorStore) Persist() error {
	if len(vs.pending) == 0 {
		return nil
	}
	ctx := context.Background()

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, filename, chunk_index, content, start_offset, end_offset, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		vs.config.TableName)

	for _, rec := range vs.pending {
		_, err := tx.Exec(ctx, stmt,
			rec.ID,
			rec.Filename,
			rec.ChunkIndex,
			rec.Text,
			rec.Start,
			rec.End,
			pgvector.NewVector(rec.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	vs.count += len(vs.pending)
	vs.pending = nil
	return nil
}

func (vs *PGVectorStore) Search(query []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	ctx := context.Background()

	// embedding <=> $1 is cosine distance; 1 - distance is cosine similarity
	sql := fmt.Sprintf(`
		SELECT id, filename, chunk_index, content, start_offset, end_offset,
		       1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, pos
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, sql, pgvector.NewVector(normalize(query)), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var res models.SearchResult
		err := rows.Scan(
			&res.Record.ID,
			&res.Record.Filename,
			&res.Record.ChunkIndex,
			&res.Record.Text,
			&res.Record.Start,
			&res.Record.End,
			&res.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (vs *PGVectorStore) Len() int { return vs.count + len(vs.pending) }

func (vs *PGVectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}
