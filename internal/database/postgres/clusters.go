package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kozaktomas/band-gallery/internal/database"
)

const clusterColumns = `pc.id, pc.event_id, pc.cluster_type, pc.photo_ids, pc.representative_photo_id,
	pc.metadata, pc.created_at, pc.updated_at`

// ClusterRepository provides PostgreSQL-backed photo cluster storage
type ClusterRepository struct {
	pool *Pool
}

// NewClusterRepository creates a new PostgreSQL cluster repository
func NewClusterRepository(pool *Pool) *ClusterRepository {
	return &ClusterRepository{pool: pool}
}

func scanCluster(row rowScanner) (database.PhotoCluster, error) {
	var c database.PhotoCluster
	var clusterType string
	var metadata []byte
	err := row.Scan(
		&c.ID, &c.EventID, &clusterType, pq.Array(&c.PhotoIDs), &c.RepresentativePhotoID,
		&metadata, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}
	c.ClusterType = database.ClusterType(clusterType)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return c, fmt.Errorf("decode metadata of cluster %s: %w", c.ID, err)
		}
	}
	return c, nil
}

func scanClusters(rows *sql.Rows) ([]database.PhotoCluster, error) {
	defer rows.Close()
	clusters := []database.PhotoCluster{}
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clusters: %w", err)
	}
	return clusters, nil
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}

func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// ListClusters returns clusters of the given types with a member matching the filter
func (r *ClusterRepository) ListClusters(ctx context.Context, types []database.ClusterType, filter database.PhotoFilter) ([]database.PhotoCluster, error) {
	if len(types) == 0 {
		return nil, nil
	}
	tags := make([]string, len(types))
	for i, t := range types {
		tags[i] = string(t)
	}

	var b whereBuilder
	b.add("pc.cluster_type = ANY(%s)", pq.Array(tags))
	members := whereBuilder{args: b.args}
	members.addRaw("p.id = ANY(pc.photo_ids)")
	members.photoFilter(filter)
	b.args = members.args
	b.addRaw("EXISTS (SELECT 1 FROM photos p WHERE " + members.sql() + ")")

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM photo_clusters pc
		WHERE %s
		ORDER BY pc.created_at, pc.id COLLATE "C"`, clusterColumns, b.sql()), b.args...)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	return scanClusters(rows)
}

// GetCluster retrieves a cluster by ID
func (r *ClusterRepository) GetCluster(ctx context.Context, id string) (*database.PhotoCluster, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+clusterColumns+" FROM photo_clusters pc WHERE pc.id = $1", id)
	c, err := scanCluster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cluster: %w", err)
	}
	return &c, nil
}

// SearchClusters lists clusters for administration
func (r *ClusterRepository) SearchClusters(ctx context.Context, filter database.ClusterListFilter) ([]database.PhotoCluster, error) {
	var b whereBuilder
	if filter.ClusterType != "" {
		b.add("pc.cluster_type = %s", string(filter.ClusterType))
	}
	if filter.EventID != "" {
		b.add("pc.event_id = %s", filter.EventID)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM photo_clusters pc
		WHERE %s
		ORDER BY pc.created_at, pc.id COLLATE "C"`, clusterColumns, b.sql()), b.args...)
	if err != nil {
		return nil, fmt.Errorf("search clusters: %w", err)
	}
	return scanClusters(rows)
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertCluster(ctx context.Context, q execQuerier, c *database.PhotoCluster) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	metadata, err := encodeMetadata(c.Metadata)
	if err != nil {
		return err
	}

	err = q.QueryRowContext(ctx, `
		INSERT INTO photo_clusters (id, event_id, cluster_type, photo_ids, representative_photo_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, nullString(c.EventID), string(c.ClusterType), pq.Array(c.PhotoIDs),
		nullString(c.RepresentativePhotoID), metadata,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cluster: %w", err)
	}
	return nil
}

// CreateCluster stores a new cluster
func (r *ClusterRepository) CreateCluster(ctx context.Context, c *database.PhotoCluster) error {
	return insertCluster(ctx, r.pool.db, c)
}

// UpdateCluster replaces members and representative of an existing cluster
func (r *ClusterRepository) UpdateCluster(ctx context.Context, c *database.PhotoCluster) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE photo_clusters pc
		SET photo_ids = $2, representative_photo_id = $3, updated_at = NOW()
		WHERE pc.id = $1
		RETURNING `+clusterColumns,
		c.ID, pq.Array(c.PhotoIDs), nullString(c.RepresentativePhotoID),
	)
	updated, err := scanCluster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return database.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update cluster: %w", err)
	}
	*c = updated
	return nil
}

// DeleteCluster removes a cluster
func (r *ClusterRepository) DeleteCluster(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM photo_clusters WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete cluster: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cluster: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ReplaceAlgorithmicClusters swaps algorithmic clusters of one type and event in a transaction
func (r *ClusterRepository) ReplaceAlgorithmicClusters(ctx context.Context, eventID string, clusterType database.ClusterType, clusters []database.PhotoCluster) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var event any
	if eventID != "" {
		event = eventID
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM photo_clusters
		WHERE cluster_type = $1
		  AND event_id IS NOT DISTINCT FROM $2
		  AND metadata->>'source' = $3`,
		string(clusterType), event, database.ClusterSourceAlgorithmic,
	)
	if err != nil {
		return fmt.Errorf("delete algorithmic clusters: %w", err)
	}

	for i := range clusters {
		c := &clusters[i]
		c.ClusterType = clusterType
		if eventID != "" {
			c.EventID = &eventID
		}
		if c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		c.Metadata["source"] = database.ClusterSourceAlgorithmic
		if err := insertCluster(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clusters: %w", err)
	}
	return nil
}
