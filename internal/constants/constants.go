// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Pagination constants
const (
	// DefaultPage is the page served when the page parameter is missing or invalid
	DefaultPage = 1

	// FallbackPageSize is used when no gallery configuration is available
	FallbackPageSize = 24

	// FallbackMaxPageSize caps the page size when no gallery configuration is available
	FallbackMaxPageSize = 100
)

// Clustering constants
const (
	// MinClusterSize is the smallest member count that still forms a cluster
	MinClusterSize = 2

	// DefaultHashThreshold is the max Hamming distance for near-duplicate photos
	DefaultHashThreshold = 10

	// DefaultSceneSimilarity is the min cosine similarity for photos of the same scene
	DefaultSceneSimilarity = 0.85

	// DefaultSceneNeighbors is the number of HNSW candidates examined per photo
	DefaultSceneNeighbors = 50
)

// Processing constants
const (
	// DefaultConcurrency is the default number of parallel workers
	DefaultConcurrency = 5

	// MaxPhotoDownloadSize is the largest media object read for hashing (50MB)
	MaxPhotoDownloadSize = 50 << 20
)

// Filter option lists
const (
	// MaxPhotographers caps the photographer list returned with the first gallery page
	MaxPhotographers = 500
)
