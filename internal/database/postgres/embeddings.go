package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/band-gallery/internal/database"
)

// EmbeddingDim is the dimension of the photo_embeddings.embedding column
const EmbeddingDim = 512

// EmbeddingRepository provides PostgreSQL-backed image embedding storage
type EmbeddingRepository struct {
	pool *Pool
}

// NewEmbeddingRepository creates a new PostgreSQL embedding repository
func NewEmbeddingRepository(pool *Pool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// SaveBatch stores or replaces embeddings in a single transaction
func (r *EmbeddingRepository) SaveBatch(ctx context.Context, embeddings []database.PhotoEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO photo_embeddings (photo_id, embedding, model, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (photo_id) DO UPDATE
		SET embedding = EXCLUDED.embedding, model = EXCLUDED.model, created_at = EXCLUDED.created_at`)
	if err != nil {
		return fmt.Errorf("prepare embedding insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range embeddings {
		if len(e.Embedding) != EmbeddingDim {
			return fmt.Errorf("embedding of photo %s has dimension %d, expected %d", e.PhotoID, len(e.Embedding), EmbeddingDim)
		}
		if _, err := stmt.ExecContext(ctx, e.PhotoID, pgvector.NewVector(e.Embedding), e.Model); err != nil {
			return fmt.Errorf("save embedding of photo %s: %w", e.PhotoID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit embeddings: %w", err)
	}
	return nil
}

// Count returns the number of stored embeddings
func (r *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM photo_embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

// ListEmbeddings returns the embeddings of an event's photos ordered by upload time then id
func (r *EmbeddingRepository) ListEmbeddings(ctx context.Context, eventID string) ([]database.PhotoEmbedding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.photo_id, e.embedding, e.model, e.created_at
		FROM photo_embeddings e
		JOIN photos p ON p.id = e.photo_id
		WHERE $1 = '' OR p.event_id = $1
		ORDER BY p.uploaded_at, p.id COLLATE "C"`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var embeddings []database.PhotoEmbedding
	for rows.Next() {
		var e database.PhotoEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&e.PhotoID, &vec, &e.Model, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		e.Embedding = vec.Slice()
		embeddings = append(embeddings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return embeddings, nil
}
