package database

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// ErrNotFound is returned by lookups of a single row that does not exist.
var ErrNotFound = errors.New("not found")

// Photo is a single media item of the public gallery.
type Photo struct {
	ID           string
	EventID      *string
	BandID       *string
	URL          string
	ThumbnailURL string
	OriginalURL  *string
	Photographer *string
	CapturedAt   *time.Time
	UploadedAt   time.Time
	Width        *int
	Height       *int
	FileSize     *int64
	ContentType  *string
	Metadata     map[string]any // free-form extraction metadata
}

// ClusterType tags the kind of grouping a PhotoCluster represents.
type ClusterType string

const (
	ClusterTypeNearDuplicate ClusterType = "near_duplicate"
	ClusterTypeScene         ClusterType = "scene"
)

// KnownClusterTypes lists the cluster types the gallery can collapse.
var KnownClusterTypes = []ClusterType{ClusterTypeNearDuplicate, ClusterTypeScene}

// IsKnown reports whether t is one of KnownClusterTypes.
func (t ClusterType) IsKnown() bool {
	return slices.Contains(KnownClusterTypes, t)
}

// ParseClusterTypes parses a comma-separated list of cluster type tags.
// Unknown tokens are dropped, duplicates keep their first position.
func ParseClusterTypes(raw string) []ClusterType {
	var types []ClusterType
	for token := range strings.SplitSeq(raw, ",") {
		t := ClusterType(strings.ToLower(strings.TrimSpace(token)))
		if !t.IsKnown() || slices.Contains(types, t) {
			continue
		}
		types = append(types, t)
	}
	return types
}

// Cluster provenance values stored under metadata["source"].
const (
	ClusterSourceManual      = "manual"
	ClusterSourceAlgorithmic = "algorithmic"
)

// PhotoCluster groups two or more photos sharing a cluster type.
type PhotoCluster struct {
	ID                    string
	EventID               *string
	ClusterType           ClusterType
	PhotoIDs              []string
	RepresentativePhotoID *string
	Metadata              map[string]any
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Representative returns the designated representative, or the first member if none is set.
func (c *PhotoCluster) Representative() string {
	if c.RepresentativePhotoID != nil && *c.RepresentativePhotoID != "" {
		return *c.RepresentativePhotoID
	}
	if len(c.PhotoIDs) == 0 {
		return ""
	}
	return c.PhotoIDs[0]
}

// Source returns the provenance recorded in the cluster metadata.
func (c *PhotoCluster) Source() string {
	if s, ok := c.Metadata["source"].(string); ok {
		return s
	}
	return ""
}

// PhotoFilter narrows the candidate set of the gallery. Empty fields do not filter.
type PhotoFilter struct {
	EventID       string
	BandID        string
	CompanySlug   string
	Photographer  string
	UnmatchedOnly bool // only photos not yet matched to a band
}

// ScopeOnly returns the filter without the photographer and unmatched narrowing.
// Used to compute filter option lists that must not collapse to the current selection.
func (f PhotoFilter) ScopeOnly() PhotoFilter {
	return PhotoFilter{EventID: f.EventID, BandID: f.BandID, CompanySlug: f.CompanySlug}
}

// PhotoOrder selects the ordering applied by the store.
type PhotoOrder struct {
	Shuffled bool
	Seed     string // used only when Shuffled
}

// PhotoQuery is an ordered, sliced view over the filtered photo set.
type PhotoQuery struct {
	Filter  PhotoFilter
	Exclude []string // ids removed from the set (collapsed cluster members)
	Order   PhotoOrder
	Limit   int
	Offset  int
}

// Company is a sponsor/employer that bands belong to.
type Company struct {
	Slug string
	Name string
}

// PhotoHash holds the perceptual hashes computed for a photo.
type PhotoHash struct {
	PhotoID    string
	PHash      uint64
	DHash      uint64
	ComputedAt time.Time
}

// PhotoEmbedding holds an image embedding produced by the external intelligence pipeline.
type PhotoEmbedding struct {
	PhotoID   string
	Embedding []float32
	Model     string
	CreatedAt time.Time
}

// ClusterListFilter narrows the admin cluster listing.
type ClusterListFilter struct {
	ClusterType ClusterType
	EventID     string
}
