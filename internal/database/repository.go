package database

import (
	"context"
)

// PhotoReader provides read-only access to the photo collection
type PhotoReader interface {
	// CountPhotos returns the number of photos matching the filter
	CountPhotos(ctx context.Context, filter PhotoFilter) (int, error)
	// FilterPhotoIDs returns the ids that exist and match the filter, in input order.
	// Ids without a photo row are dropped silently.
	FilterPhotoIDs(ctx context.Context, filter PhotoFilter, ids []string) ([]string, error)
	// ListPhotos returns one slice of the ordered photo set; ordering and slicing run in the store
	ListPhotos(ctx context.Context, query PhotoQuery) ([]Photo, error)
	// PhotoPosition returns the 0-based rank of photoID under the query ordering.
	// Limit and Offset of the query are ignored. The bool is false when the photo is not in the set.
	PhotoPosition(ctx context.Context, query PhotoQuery, photoID string) (int, bool, error)
	// GetPhoto retrieves a photo by ID, returns ErrNotFound if absent
	GetPhoto(ctx context.Context, id string) (*Photo, error)
	// GetPhotosByIDs returns the photos for the given ids in input order, skipping missing ones
	GetPhotosByIDs(ctx context.Context, ids []string) ([]Photo, error)
	// ListPhotographers returns the distinct photographer names in scope
	ListPhotographers(ctx context.Context, filter PhotoFilter) ([]string, error)
	// ListCompanies returns the companies whose bands have photos in scope
	ListCompanies(ctx context.Context, filter PhotoFilter) ([]Company, error)
}

// ClusterReader provides read-only access to photo clusters
type ClusterReader interface {
	// ListClusters returns clusters of the given types with at least one member matching
	// the filter, ordered by creation time then id
	ListClusters(ctx context.Context, types []ClusterType, filter PhotoFilter) ([]PhotoCluster, error)
	// GetCluster retrieves a cluster by ID, returns ErrNotFound if absent
	GetCluster(ctx context.Context, id string) (*PhotoCluster, error)
	// SearchClusters lists clusters for administration
	SearchClusters(ctx context.Context, filter ClusterListFilter) ([]PhotoCluster, error)
}

// ClusterWriter provides write access to photo clusters
type ClusterWriter interface {
	ClusterReader

	// CreateCluster stores a new cluster, assigning ID and timestamps when empty
	CreateCluster(ctx context.Context, cluster *PhotoCluster) error
	// UpdateCluster replaces the member list and representative of an existing cluster
	UpdateCluster(ctx context.Context, cluster *PhotoCluster) error
	// DeleteCluster removes a cluster (ungrouping its photos)
	DeleteCluster(ctx context.Context, id string) error
	// ReplaceAlgorithmicClusters atomically swaps the algorithmic clusters of one type and event.
	// Manual clusters are never touched.
	ReplaceAlgorithmicClusters(ctx context.Context, eventID string, clusterType ClusterType, clusters []PhotoCluster) error
}

// HashStore stores perceptual hashes used by near-duplicate clustering
type HashStore interface {
	// PhotosWithoutHashes returns the photos of an event that have no stored hashes
	PhotosWithoutHashes(ctx context.Context, eventID string) ([]Photo, error)
	// SaveHash stores or replaces the hashes of a photo
	SaveHash(ctx context.Context, hash PhotoHash) error
	// ListHashes returns the hashes of an event's photos ordered by upload time then id
	ListHashes(ctx context.Context, eventID string) ([]PhotoHash, error)
}

// EmbeddingReader provides read-only access to image embeddings
type EmbeddingReader interface {
	// ListEmbeddings returns the embeddings of an event's photos ordered by upload time then id
	ListEmbeddings(ctx context.Context, eventID string) ([]PhotoEmbedding, error)
}

// EmbeddingStore adds bulk import of embeddings produced outside this service
type EmbeddingStore interface {
	EmbeddingReader

	// SaveBatch stores or replaces embeddings atomically
	SaveBatch(ctx context.Context, embeddings []PhotoEmbedding) error
}
