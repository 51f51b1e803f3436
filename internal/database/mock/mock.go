// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/shuffle"
)

// MockStore is an in-memory implementation of the photo, cluster, hash and embedding stores
type MockStore struct {
	mu         sync.RWMutex
	photos     map[string]database.Photo
	clusters   map[string]database.PhotoCluster
	bands      map[string]string // band id -> company slug
	companies  map[string]string // company slug -> name
	hashes     map[string]database.PhotoHash
	embeddings map[string]database.PhotoEmbedding
	clusterSeq int

	// Error injection
	CountError    error
	FilterError   error
	ListError     error
	PositionError error
	GetError      error
	ClusterError  error
	WriteError    error
	OptionsError  error

	// Calls counts ListPhotos invocations
	Calls int
}

// NewMockStore creates a new empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		photos:     make(map[string]database.Photo),
		clusters:   make(map[string]database.PhotoCluster),
		bands:      make(map[string]string),
		companies:  make(map[string]string),
		hashes:     make(map[string]database.PhotoHash),
		embeddings: make(map[string]database.PhotoEmbedding),
	}
}

// AddPhoto adds a photo to the mock store
func (m *MockStore) AddPhoto(p database.Photo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	m.photos[p.ID] = p
}

// AddBand registers a band belonging to a company
func (m *MockStore) AddBand(bandID, companySlug, companyName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bands[bandID] = companySlug
	if companySlug != "" {
		m.companies[companySlug] = companyName
	}
}

// AddCluster adds a cluster; creation order follows insertion when CreatedAt is zero
func (m *MockStore) AddCluster(c database.PhotoCluster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addClusterLocked(&c)
}

func (m *MockStore) addClusterLocked(c *database.PhotoCluster) {
	m.clusterSeq++
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Date(2025, 1, 1, 0, 0, m.clusterSeq, 0, time.UTC)
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	c.PhotoIDs = slices.Clone(c.PhotoIDs)
	m.clusters[c.ID] = *c
}

// AddEmbedding adds an embedding to the mock store
func (m *MockStore) AddEmbedding(e database.PhotoEmbedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[e.PhotoID] = e
}

// Hashes returns a copy of the stored hashes keyed by photo id
func (m *MockStore) Hashes() map[string]database.PhotoHash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]database.PhotoHash, len(m.hashes))
	for k, v := range m.hashes {
		out[k] = v
	}
	return out
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// matches applies filter semantics identical to the PostgreSQL store
func (m *MockStore) matches(p database.Photo, f database.PhotoFilter) bool {
	if f.EventID != "" && strVal(p.EventID) != f.EventID {
		return false
	}
	if f.BandID != "" && strVal(p.BandID) != f.BandID {
		return false
	}
	if f.CompanySlug != "" {
		if p.BandID == nil || m.bands[*p.BandID] != f.CompanySlug {
			return false
		}
	}
	if f.Photographer != "" && !strings.EqualFold(strVal(p.Photographer), f.Photographer) {
		return false
	}
	if f.UnmatchedOnly && p.BandID != nil {
		return false
	}
	return true
}

// compareChronological orders by captured_at DESC NULLS LAST, uploaded_at DESC, id DESC
func compareChronological(a, b database.Photo) int {
	switch {
	case a.CapturedAt != nil && b.CapturedAt == nil:
		return -1
	case a.CapturedAt == nil && b.CapturedAt != nil:
		return 1
	case a.CapturedAt != nil && b.CapturedAt != nil:
		if c := b.CapturedAt.Compare(*a.CapturedAt); c != 0 {
			return c
		}
	}
	if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// ordered returns the filtered, excluded and ordered photo set of a query
func (m *MockStore) ordered(q database.PhotoQuery) []database.Photo {
	var result []database.Photo
	for _, p := range m.photos {
		if m.matches(p, q.Filter) && !slices.Contains(q.Exclude, p.ID) {
			result = append(result, p)
		}
	}
	if q.Order.Shuffled {
		shuffle.SortFunc(result, q.Order.Seed, func(p database.Photo) string { return p.ID })
	} else {
		slices.SortFunc(result, compareChronological)
	}
	return result
}

// CountPhotos returns the number of photos matching the filter
func (m *MockStore) CountPhotos(ctx context.Context, filter database.PhotoFilter) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, p := range m.photos {
		if m.matches(p, filter) {
			count++
		}
	}
	return count, nil
}

// FilterPhotoIDs returns the ids that exist and match the filter
func (m *MockStore) FilterPhotoIDs(ctx context.Context, filter database.PhotoFilter, ids []string) ([]string, error) {
	if m.FilterError != nil {
		return nil, m.FilterError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, id := range ids {
		p, ok := m.photos[id]
		if ok && m.matches(p, filter) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

// ListPhotos returns one ordered slice of the photo set
func (m *MockStore) ListPhotos(ctx context.Context, q database.PhotoQuery) ([]database.Photo, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("list photos: negative offset %d", q.Offset)
	}
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.ordered(q)
	if q.Offset >= len(all) {
		return []database.Photo{}, nil
	}
	end := len(all)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return slices.Clone(all[q.Offset:end]), nil
}

// PhotoPosition returns the rank of photoID in the query ordering
func (m *MockStore) PhotoPosition(ctx context.Context, q database.PhotoQuery, photoID string) (int, bool, error) {
	if m.PositionError != nil {
		return 0, false, m.PositionError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, p := range m.ordered(q) {
		if p.ID == photoID {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// GetPhoto retrieves a photo by ID
func (m *MockStore) GetPhoto(ctx context.Context, id string) (*database.Photo, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

// GetPhotosByIDs returns photos in input order, skipping missing ones
func (m *MockStore) GetPhotosByIDs(ctx context.Context, ids []string) ([]database.Photo, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Photo
	for _, id := range ids {
		if p, ok := m.photos[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPhotographers returns distinct photographer names in scope
func (m *MockStore) ListPhotographers(ctx context.Context, filter database.PhotoFilter) ([]string, error) {
	if m.OptionsError != nil {
		return nil, m.OptionsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for _, p := range m.photos {
		if p.Photographer == nil || *p.Photographer == "" || !m.matches(p, filter) {
			continue
		}
		if !slices.Contains(names, *p.Photographer) {
			names = append(names, *p.Photographer)
		}
	}
	slices.Sort(names)
	return names, nil
}

// ListCompanies returns companies whose bands have photos in scope
func (m *MockStore) ListCompanies(ctx context.Context, filter database.PhotoFilter) ([]database.Company, error) {
	if m.OptionsError != nil {
		return nil, m.OptionsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var out []database.Company
	for _, p := range m.photos {
		if p.BandID == nil || !m.matches(p, filter) {
			continue
		}
		slug := m.bands[*p.BandID]
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, database.Company{Slug: slug, Name: m.companies[slug]})
	}
	slices.SortFunc(out, func(a, b database.Company) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
	return out, nil
}

func compareClusters(a, b database.PhotoCluster) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// ListClusters returns clusters of the given types intersecting the filter
func (m *MockStore) ListClusters(ctx context.Context, types []database.ClusterType, filter database.PhotoFilter) ([]database.PhotoCluster, error) {
	if m.ClusterError != nil {
		return nil, m.ClusterError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.PhotoCluster
	for _, c := range m.clusters {
		if !slices.Contains(types, c.ClusterType) {
			continue
		}
		for _, id := range c.PhotoIDs {
			if p, ok := m.photos[id]; ok && m.matches(p, filter) {
				out = append(out, c)
				break
			}
		}
	}
	slices.SortFunc(out, compareClusters)
	return out, nil
}

// GetCluster retrieves a cluster by ID
func (m *MockStore) GetCluster(ctx context.Context, id string) (*database.PhotoCluster, error) {
	if m.ClusterError != nil {
		return nil, m.ClusterError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clusters[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &c, nil
}

// SearchClusters lists clusters for administration
func (m *MockStore) SearchClusters(ctx context.Context, filter database.ClusterListFilter) ([]database.PhotoCluster, error) {
	if m.ClusterError != nil {
		return nil, m.ClusterError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []database.PhotoCluster{}
	for _, c := range m.clusters {
		if filter.ClusterType != "" && c.ClusterType != filter.ClusterType {
			continue
		}
		if filter.EventID != "" && strVal(c.EventID) != filter.EventID {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, compareClusters)
	return out, nil
}

// CreateCluster stores a new cluster
func (m *MockStore) CreateCluster(ctx context.Context, c *database.PhotoCluster) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addClusterLocked(c)
	return nil
}

// UpdateCluster replaces members and representative of an existing cluster
func (m *MockStore) UpdateCluster(ctx context.Context, c *database.PhotoCluster) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.clusters[c.ID]
	if !ok {
		return database.ErrNotFound
	}
	existing.PhotoIDs = slices.Clone(c.PhotoIDs)
	existing.RepresentativePhotoID = c.RepresentativePhotoID
	existing.UpdatedAt = existing.UpdatedAt.Add(time.Second)
	m.clusters[c.ID] = existing
	*c = existing
	return nil
}

// DeleteCluster removes a cluster
func (m *MockStore) DeleteCluster(ctx context.Context, id string) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clusters[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.clusters, id)
	return nil
}

// ReplaceAlgorithmicClusters swaps algorithmic clusters of one type and event
func (m *MockStore) ReplaceAlgorithmicClusters(ctx context.Context, eventID string, clusterType database.ClusterType, clusters []database.PhotoCluster) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.clusters {
		if c.ClusterType == clusterType && strVal(c.EventID) == eventID && c.Source() == database.ClusterSourceAlgorithmic {
			delete(m.clusters, id)
		}
	}
	for i := range clusters {
		c := clusters[i]
		c.ClusterType = clusterType
		if eventID != "" {
			c.EventID = &eventID
		}
		metadata := map[string]any{}
		for k, v := range c.Metadata {
			metadata[k] = v
		}
		metadata["source"] = database.ClusterSourceAlgorithmic
		c.Metadata = metadata
		m.addClusterLocked(&c)
	}
	return nil
}

// PhotosWithoutHashes returns an event's photos without stored hashes
func (m *MockStore) PhotosWithoutHashes(ctx context.Context, eventID string) ([]database.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Photo
	for _, p := range m.photos {
		if _, ok := m.hashes[p.ID]; ok {
			continue
		}
		if eventID == "" || strVal(p.EventID) == eventID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, compareUpload)
	return out, nil
}

// SaveHash stores the hashes of a photo
func (m *MockStore) SaveHash(ctx context.Context, hash database.PhotoHash) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[hash.PhotoID]; !ok {
		return fmt.Errorf("save hash: photo %s: %w", hash.PhotoID, database.ErrNotFound)
	}
	m.hashes[hash.PhotoID] = hash
	return nil
}

// ListHashes returns an event's hashes ordered by upload time then id
func (m *MockStore) ListHashes(ctx context.Context, eventID string) ([]database.PhotoHash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var photos []database.Photo
	for id := range m.hashes {
		p := m.photos[id]
		if eventID == "" || strVal(p.EventID) == eventID {
			photos = append(photos, p)
		}
	}
	slices.SortFunc(photos, compareUpload)
	out := make([]database.PhotoHash, 0, len(photos))
	for _, p := range photos {
		out = append(out, m.hashes[p.ID])
	}
	return out, nil
}

// SaveBatch stores embeddings
func (m *MockStore) SaveBatch(ctx context.Context, embeddings []database.PhotoEmbedding) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range embeddings {
		m.embeddings[e.PhotoID] = e
	}
	return nil
}

// ListEmbeddings returns an event's embeddings ordered by upload time then id
func (m *MockStore) ListEmbeddings(ctx context.Context, eventID string) ([]database.PhotoEmbedding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var photos []database.Photo
	for id := range m.embeddings {
		p, ok := m.photos[id]
		if !ok {
			p = database.Photo{ID: id}
		}
		if eventID == "" || strVal(p.EventID) == eventID {
			photos = append(photos, p)
		}
	}
	slices.SortFunc(photos, compareUpload)
	out := make([]database.PhotoEmbedding, 0, len(photos))
	for _, p := range photos {
		out = append(out, m.embeddings[p.ID])
	}
	return out, nil
}

func compareUpload(a, b database.Photo) int {
	if c := a.UploadedAt.Compare(b.UploadedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
