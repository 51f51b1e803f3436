package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/kozaktomas/band-gallery/internal/database"
)

const photoColumns = `p.id, p.event_id, p.band_id, p.url, p.thumbnail_url, p.original_url,
	p.photographer, p.captured_at, p.uploaded_at, p.width, p.height, p.file_size,
	p.content_type, p.metadata`

// PhotoRepository provides PostgreSQL-backed photo queries
type PhotoRepository struct {
	pool *Pool
}

// NewPhotoRepository creates a new PostgreSQL photo repository
func NewPhotoRepository(pool *Pool) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (database.Photo, error) {
	var p database.Photo
	var metadata []byte
	err := row.Scan(
		&p.ID, &p.EventID, &p.BandID, &p.URL, &p.ThumbnailURL, &p.OriginalURL,
		&p.Photographer, &p.CapturedAt, &p.UploadedAt, &p.Width, &p.Height, &p.FileSize,
		&p.ContentType, &metadata,
	)
	if err != nil {
		return p, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return p, fmt.Errorf("decode metadata of photo %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func scanPhotos(rows *sql.Rows) ([]database.Photo, error) {
	defer rows.Close()
	photos := []database.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}
	return photos, nil
}

// CountPhotos returns the number of photos matching the filter
func (r *PhotoRepository) CountPhotos(ctx context.Context, filter database.PhotoFilter) (int, error) {
	var b whereBuilder
	b.photoFilter(filter)

	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM photos p WHERE "+b.sql(), b.args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return count, nil
}

// FilterPhotoIDs returns the ids that exist and match the filter, in input order
func (r *PhotoRepository) FilterPhotoIDs(ctx context.Context, filter database.PhotoFilter, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var b whereBuilder
	b.add("p.id = ANY(%s)", pq.Array(ids))
	b.photoFilter(filter)

	rows, err := r.pool.Query(ctx, "SELECT p.id FROM photos p WHERE "+b.sql(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("filter photo ids: %w", err)
	}
	defer rows.Close()

	matched := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan photo id: %w", err)
		}
		matched[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photo ids: %w", err)
	}

	var out []string
	for _, id := range ids {
		if matched[id] {
			out = append(out, id)
			delete(matched, id)
		}
	}
	return out, nil
}

// ListPhotos returns one ordered slice of the photo set
func (r *PhotoRepository) ListPhotos(ctx context.Context, q database.PhotoQuery) ([]database.Photo, error) {
	if q.Offset < 0 {
		return nil, fmt.Errorf("list photos: negative offset %d", q.Offset)
	}
	var b whereBuilder
	b.photoFilter(q.Filter)
	b.exclude(q.Exclude)
	where := b.sql()
	order := b.orderBy(q.Order)

	query := fmt.Sprintf("SELECT %s FROM photos p WHERE %s ORDER BY %s", photoColumns, where, order)
	if q.Limit > 0 {
		query += " LIMIT " + b.arg(q.Limit)
	}
	if q.Offset > 0 {
		query += " OFFSET " + b.arg(q.Offset)
	}

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return scanPhotos(rows)
}

// PhotoPosition returns the 0-based rank of photoID under the query ordering
func (r *PhotoRepository) PhotoPosition(ctx context.Context, q database.PhotoQuery, photoID string) (int, bool, error) {
	var b whereBuilder
	b.photoFilter(q.Filter)
	b.exclude(q.Exclude)
	where := b.sql()
	order := b.orderBy(q.Order)
	target := b.arg(photoID)

	query := fmt.Sprintf(`
		SELECT pos FROM (
			SELECT p.id, ROW_NUMBER() OVER (ORDER BY %s) - 1 AS pos
			FROM photos p
			WHERE %s
		) ranked
		WHERE id = %s
	`, order, where, target)

	var pos int
	err := r.pool.QueryRow(ctx, query, b.args...).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("photo position: %w", err)
	}
	return pos, true, nil
}

// GetPhoto retrieves a photo by ID
func (r *PhotoRepository) GetPhoto(ctx context.Context, id string) (*database.Photo, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+photoColumns+" FROM photos p WHERE p.id = $1", id)
	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &p, nil
}

// GetPhotosByIDs returns photos in input order, skipping missing ones
func (r *PhotoRepository) GetPhotosByIDs(ctx context.Context, ids []string) ([]database.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, "SELECT "+photoColumns+" FROM photos p WHERE p.id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get photos by ids: %w", err)
	}
	photos, err := scanPhotos(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]database.Photo, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}
	out := make([]database.Photo, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPhotographers returns distinct photographer names in scope
func (r *PhotoRepository) ListPhotographers(ctx context.Context, filter database.PhotoFilter) ([]string, error) {
	var b whereBuilder
	b.photoFilter(filter)
	b.addRaw("COALESCE(p.photographer, '') <> ''")

	rows, err := r.pool.Query(ctx, "SELECT DISTINCT p.photographer FROM photos p WHERE "+b.sql(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("list photographers: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan photographer: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photographers: %w", err)
	}
	return names, nil
}

// ListCompanies returns companies whose bands have photos in scope
func (r *PhotoRepository) ListCompanies(ctx context.Context, filter database.PhotoFilter) ([]database.Company, error) {
	var b whereBuilder
	b.photoFilter(filter)

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT c.slug, c.name
		FROM photos p
		JOIN bands b ON b.id = p.band_id
		JOIN companies c ON c.id = b.company_id
		WHERE `+b.sql()+`
		ORDER BY c.name, c.slug`, b.args...)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []database.Company
	for rows.Next() {
		var c database.Company
		if err := rows.Scan(&c.Slug, &c.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}
