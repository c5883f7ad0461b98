package faqrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/artifact"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS faq_catalog (
	id              SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	format_version  INT NOT NULL,
	strategy        TEXT NOT NULL,
	model_id        TEXT NOT NULL DEFAULT '',
	dim             INT NOT NULL,
	entry_count     INT NOT NULL,
	normalize       BOOLEAN NOT NULL,
	lexical         JSONB,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS faq_entries (
	id        INT PRIMARY KEY,
	question  TEXT NOT NULL,
	answer    TEXT NOT NULL,
	embedding vector NOT NULL
);
`

// insertBatchSize bounds the statements queued per pgx batch.
const insertBatchSize = 500

// PostgresRepository stores the published catalog in Postgres with pgvector.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the catalog tables when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// ReplaceCatalog swaps the stored catalog for art in a single transaction.
func (r *PostgresRepository) ReplaceCatalog(ctx context.Context, art *artifact.Artifact) error {
	if err := art.Validate(); err != nil {
		return err
	}
	var lexical []byte
	if art.Lexical != nil {
		var err error
		if lexical, err = json.Marshal(art.Lexical); err != nil {
			return err
		}
	}
	createdAt, err := time.Parse(time.RFC3339, art.Manifest.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM faq_entries`); err != nil {
		return fmt.Errorf("clear faq entries: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO faq_catalog (id, format_version, strategy, model_id, dim, entry_count, normalize, lexical, created_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			format_version = EXCLUDED.format_version,
			strategy = EXCLUDED.strategy,
			model_id = EXCLUDED.model_id,
			dim = EXCLUDED.dim,
			entry_count = EXCLUDED.entry_count,
			normalize = EXCLUDED.normalize,
			lexical = EXCLUDED.lexical,
			created_at = EXCLUDED.created_at
	`, artifact.FormatVersion, string(art.Manifest.Strategy), art.Manifest.ModelID, art.Manifest.Dim,
		len(art.Entries), art.Manifest.Normalize, lexical, createdAt); err != nil {
		return fmt.Errorf("upsert faq catalog: %w", err)
	}

	for start := 0; start < len(art.Entries); start += insertBatchSize {
		end := min(start+insertBatchSize, len(art.Entries))
		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			e := art.Entries[i]
			batch.Queue(`INSERT INTO faq_entries (id, question, answer, embedding) VALUES ($1, $2, $3, $4)`,
				i, e.Question, e.Answer, pgvector.NewVector(art.Vectors[i]))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert faq entries: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// LoadArtifact reads the stored catalog. An empty database yields
// faq.ErrArtifactMissing.
func (r *PostgresRepository) LoadArtifact(ctx context.Context) (*artifact.Artifact, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		m         artifact.Manifest
		strategy  string
		lexical   []byte
		createdAt time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT format_version, strategy, model_id, dim, entry_count, normalize, lexical, created_at
		FROM faq_catalog
		WHERE id = 1
	`).Scan(&m.FormatVersion, &strategy, &m.ModelID, &m.Dim, &m.Count, &m.Normalize, &lexical, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no catalog stored in postgres", faq.ErrArtifactMissing)
		}
		return nil, err
	}
	if m.FormatVersion != artifact.FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", faq.ErrIndexCorrupt, m.FormatVersion)
	}
	m.Strategy = faq.Strategy(strategy)
	m.CreatedAt = createdAt.UTC().Format(time.RFC3339)

	art := &artifact.Artifact{Manifest: m}
	if len(lexical) > 0 {
		var lex artifact.LexicalFile
		if err := json.Unmarshal(lexical, &lex); err != nil {
			return nil, fmt.Errorf("%w: invalid stored vocabulary: %v", faq.ErrIndexCorrupt, err)
		}
		art.Lexical = &lex
	}

	rows, err := tx.Query(ctx, `SELECT id, question, answer, embedding::text FROM faq_entries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id           int
			entry        faq.Entry
			embeddingRaw string
		)
		if err := rows.Scan(&id, &entry.Question, &entry.Answer, &embeddingRaw); err != nil {
			return nil, err
		}
		if id != len(art.Entries) {
			return nil, fmt.Errorf("%w: entry ids must be contiguous from 0: got %d at position %d", faq.ErrIndexCorrupt, id, len(art.Entries))
		}
		vec, err := parseVector(embeddingRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", faq.ErrIndexCorrupt, id, err)
		}
		art.Entries = append(art.Entries, entry)
		art.Vectors = append(art.Vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := art.Validate(); err != nil {
		return nil, err
	}
	return art, nil
}

func (r *PostgresRepository) String() string { return "postgres" }

// parseVector decodes the pgvector text form "[1,2,3]".
func parseVector(raw string) ([]float32, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		out = append(out, float32(f))
	}
	return out, nil
}
