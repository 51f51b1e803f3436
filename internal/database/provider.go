package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errBackendNotInitialized = errors.New("PostgreSQL backend not initialized: DATABASE_URL is required")

var (
	providerMu             sync.RWMutex
	postgresPhotoReader    func() PhotoReader
	postgresClusterWriter  func() ClusterWriter
	postgresHashStore      func() HashStore
	postgresEmbeddingStore func() EmbeddingStore
	postgresInitialized    bool
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called from the command layer to avoid import cycles.
func RegisterPostgresBackend(
	photoReader func() PhotoReader,
	clusterWriter func() ClusterWriter,
) {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresPhotoReader = photoReader
	postgresClusterWriter = clusterWriter
	postgresInitialized = true
}

// RegisterHashStore registers the HashStore constructor.
func RegisterHashStore(store func() HashStore) {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresHashStore = store
}

// RegisterEmbeddingStore registers the EmbeddingStore constructor.
func RegisterEmbeddingStore(store func() EmbeddingStore) {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresEmbeddingStore = store
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return postgresInitialized
}

// resolve returns the constructed repository or a descriptive error.
func resolve[T any](name string, ctor func() T) (T, error) {
	var zero T
	if !postgresInitialized {
		return zero, errBackendNotInitialized
	}
	if ctor == nil {
		return zero, fmt.Errorf("PostgreSQL %s not registered", name)
	}
	return ctor(), nil
}

// GetPhotoReader returns a PhotoReader from the PostgreSQL backend
func GetPhotoReader(ctx context.Context) (PhotoReader, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return resolve("photo reader", postgresPhotoReader)
}

// GetClusterReader returns a ClusterReader from the PostgreSQL backend
func GetClusterReader(ctx context.Context) (ClusterReader, error) {
	writer, err := GetClusterWriter(ctx)
	if err != nil {
		return nil, err
	}
	return writer, nil
}

// GetClusterWriter returns a ClusterWriter from the PostgreSQL backend
func GetClusterWriter(ctx context.Context) (ClusterWriter, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return resolve("cluster writer", postgresClusterWriter)
}

// GetHashStore returns a HashStore from the PostgreSQL backend
func GetHashStore(ctx context.Context) (HashStore, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return resolve("hash store", postgresHashStore)
}

// GetEmbeddingStore returns an EmbeddingStore from the PostgreSQL backend
func GetEmbeddingStore(ctx context.Context) (EmbeddingStore, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return resolve("embedding store", postgresEmbeddingStore)
}

// ResetBackend clears all registrations. Used by tests.
func ResetBackend() {
	providerMu.Lock()
	defer providerMu.Unlock()
	postgresPhotoReader = nil
	postgresClusterWriter = nil
	postgresHashStore = nil
	postgresEmbeddingStore = nil
	postgresInitialized = false
}
