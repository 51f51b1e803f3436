package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/band-gallery/internal/database"
)

// HashRepository provides PostgreSQL-backed perceptual hash storage
type HashRepository struct {
	pool *Pool
}

// NewHashRepository creates a new PostgreSQL hash repository
func NewHashRepository(pool *Pool) *HashRepository {
	return &HashRepository{pool: pool}
}

// PhotosWithoutHashes returns the photos of an event that have no stored hashes.
// An empty eventID selects photos of every event.
func (r *HashRepository) PhotosWithoutHashes(ctx context.Context, eventID string) ([]database.Photo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+photoColumns+`
		FROM photos p
		LEFT JOIN photo_hashes h ON h.photo_id = p.id
		WHERE h.photo_id IS NULL AND ($1 = '' OR p.event_id = $1)
		ORDER BY p.uploaded_at, p.id COLLATE "C"`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list unhashed photos: %w", err)
	}
	return scanPhotos(rows)
}

// SaveHash stores or replaces the hashes of a photo.
// Hashes are stored bit for bit in signed BIGINT columns.
func (r *HashRepository) SaveHash(ctx context.Context, hash database.PhotoHash) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO photo_hashes (photo_id, phash, dhash, computed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (photo_id) DO UPDATE
		SET phash = EXCLUDED.phash, dhash = EXCLUDED.dhash, computed_at = EXCLUDED.computed_at`,
		hash.PhotoID, int64(hash.PHash), int64(hash.DHash),
	)
	if err != nil {
		return fmt.Errorf("save hash: %w", err)
	}
	return nil
}

// ListHashes returns the hashes of an event's photos ordered by upload time then id
func (r *HashRepository) ListHashes(ctx context.Context, eventID string) ([]database.PhotoHash, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT h.photo_id, h.phash, h.dhash, h.computed_at
		FROM photo_hashes h
		JOIN photos p ON p.id = h.photo_id
		WHERE $1 = '' OR p.event_id = $1
		ORDER BY p.uploaded_at, p.id COLLATE "C"`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list hashes: %w", err)
	}
	defer rows.Close()

	var hashes []database.PhotoHash
	for rows.Next() {
		var h database.PhotoHash
		var phash, dhash int64
		if err := rows.Scan(&h.PhotoID, &phash, &dhash, &h.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		h.PHash = uint64(phash)
		h.DHash = uint64(dhash)
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hashes: %w", err)
	}
	return hashes, nil
}
