package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"course-advisor/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgvectorIndex stores course chunks in a PostgreSQL table with a pgvector column.
type PgvectorIndex struct {
	pool    *pgxpool.Pool
	tx      *TransactionManager
	encoder domain.VectorEncoder
	table   string
	logger  *slog.Logger
}

// NewPgvectorIndex creates an index over the given table name.
func NewPgvectorIndex(pool *pgxpool.Pool, encoder domain.VectorEncoder, table string, logger *slog.Logger) *PgvectorIndex {
	return &PgvectorIndex{
		pool:    pool,
		tx:      NewTransactionManager(pool),
		encoder: encoder,
		table:   tableIdent(table),
		logger:  logger,
	}
}

func tableIdent(name string) string {
	if name == "" {
		name = "course_catalog"
	}
	return pgx.Identifier{name}.Sanitize()
}

func (r *PgvectorIndex) getExecutor(ctx context.Context) dbExecutor {
	if tx := ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// EnsureSchema creates the chunk table and its source index when missing.
func (r *PgvectorIndex) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			source_file TEXT NOT NULL,
			department TEXT NOT NULL,
			ordinal INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, r.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (source_file)`,
			pgx.Identifier{indexName(r.table)}.Sanitize(), r.table),
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func indexName(sanitizedTable string) string {
	raw := sanitizedTable
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	return raw + "_source_file_idx"
}

func (r *PgvectorIndex) Similar(ctx context.Context, query string, k int) ([]domain.IndexHit, error) {
	vectors, err := r.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("embedder returned no vector for query")
	}

	sql := fmt.Sprintf(`
		SELECT content, source_file, department
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, r.table)
	rows, err := r.getExecutor(ctx).Query(ctx, sql, pgvector.NewVector(vectors[0]), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	hits := make([]domain.IndexHit, 0, k)
	for rows.Next() {
		var h domain.IndexHit
		if err := rows.Scan(&h.Text, &h.SourceName, &h.Category); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func (r *PgvectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.getExecutor(ctx).QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, r.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

func (r *PgvectorIndex) Upsert(ctx context.Context, chunks []domain.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (id, source_file, department, ordinal, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			department = EXCLUDED.department,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`, r.table)

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, c := range chunks {
			batch.Queue(sql, c.ID, c.SourceName, c.Department, c.Ordinal, c.Content, pgvector.NewVector(c.Embedding))
		}
		if err := r.getExecutor(ctx).SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert chunks: %w", err)
		}
		return nil
	})
}

func (r *PgvectorIndex) DeleteSource(ctx context.Context, sourceName string) error {
	tag, err := r.getExecutor(ctx).Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE source_file = $1`, r.table), sourceName)
	if err != nil {
		return fmt.Errorf("failed to delete source chunks: %w", err)
	}
	r.logger.InfoContext(ctx, "index_source_deleted",
		slog.String("source_file", sourceName),
		slog.Int64("rows", tag.RowsAffected()))
	return nil
}

// ReplaceSource deletes and re-inserts a source in one transaction.
func (r *PgvectorIndex) ReplaceSource(ctx context.Context, sourceName string, chunks []domain.IndexedChunk) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.DeleteSource(ctx, sourceName); err != nil {
			return err
		}
		return r.Upsert(ctx, chunks)
	})
}

func (r *PgvectorIndex) Reset(ctx context.Context) error {
	if _, err := r.getExecutor(ctx).Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, r.table)); err != nil {
		return fmt.Errorf("failed to truncate index: %w", err)
	}
	return nil
}

var (
	_ domain.DocumentIndex = (*PgvectorIndex)(nil)
	_ domain.IndexWriter   = (*PgvectorIndex)(nil)
)
