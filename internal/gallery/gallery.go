// Package gallery builds pages of the public photo gallery.
//
// A request is resolved in fixed order: the filters select the candidate set, requested
// cluster types collapse it, the seed (or chronological fallback) orders it, and the
// page/limit pair slices it. Ordering and slicing run inside the store, so only the
// requested slice is ever loaded. The totals always describe the collapsed set.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/constants"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/metrics"
	"github.com/kozaktomas/band-gallery/internal/shuffle"
)

// ErrPhotoNotFound is returned by Locate when the photo is not part of the ordered set.
var ErrPhotoNotFound = errors.New("photo not found in gallery")

// Query describes one gallery request.
type Query struct {
	Filter     database.PhotoFilter
	GroupTypes []database.ClusterType
	Grouped    bool // groupTypes was supplied, even if no token was recognized
	Shuffle    bool // shuffle was supplied
	Seed       string
	Page       int
	Limit      int
}

// Item is one element of a page: a standalone photo, or a cluster representative
// with the cluster members that survived filtering.
type Item struct {
	Photo         database.Photo
	ClusterPhotos []database.Photo
}

// Options holds the filter option lists shown next to the first page.
type Options struct {
	Photographers []string
	Companies     []database.Company
}

// Page is the result of List.
type Page struct {
	Items      []Item
	Page       int
	Limit      int
	Total      int
	TotalPages int
	Shuffled   bool
	Seed       string
	Grouped    bool
	Options    *Options // first page only
}

// Position is the result of Locate.
type Position struct {
	PhotoID  string // representative id when the requested photo was collapsed
	Index    int    // 0-based index in the ordered set
	Page     int
	Limit    int
	Total    int
	Shuffled bool
	Seed     string
}

// Service answers gallery list and locate queries.
type Service struct {
	photos       database.PhotoReader
	clusters     database.ClusterReader
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// NewService creates a gallery service over the given stores.
func NewService(photos database.PhotoReader, clusters database.ClusterReader, cfg config.GalleryConfig) *Service {
	s := &Service{
		photos:       photos,
		clusters:     clusters,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		now:          time.Now,
	}
	if s.defaultLimit < 1 {
		s.defaultLimit = constants.FallbackPageSize
	}
	if s.maxLimit < s.defaultLimit {
		s.maxLimit = max(s.defaultLimit, constants.FallbackMaxPageSize)
	}
	return s
}

// normalize clamps pagination and resolves the seed.
func (s *Service) normalize(q Query) Query {
	if q.Page < 1 {
		q.Page = constants.DefaultPage
	}
	switch {
	case q.Limit < 1:
		q.Limit = s.defaultLimit
	case q.Limit > s.maxLimit:
		q.Limit = s.maxLimit
	}
	if q.Shuffle && q.Seed == "" {
		q.Seed = shuffle.DailySeed(s.now())
	}
	if !q.Shuffle {
		q.Seed = ""
	}
	return q
}

func (q Query) order() database.PhotoOrder {
	return database.PhotoOrder{Shuffled: q.Shuffle, Seed: q.Seed}
}

// collapse loads the requested clusters and decides grouping within the filter scope.
func (s *Service) collapse(ctx context.Context, q Query) (*Collapsed, error) {
	collapsed, _, _, err := s.collapseSnapshot(ctx, q)
	return collapsed, err
}

// collapseSnapshot is collapse that also returns the clusters and the present member ids.
func (s *Service) collapseSnapshot(ctx context.Context, q Query) (*Collapsed, map[string]bool, []database.PhotoCluster, error) {
	if len(q.GroupTypes) == 0 {
		return Collapse(nil, nil, nil), nil, nil, nil
	}

	clusters, err := s.clusters.ListClusters(ctx, q.GroupTypes, q.Filter)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list clusters: %w", err)
	}
	if len(clusters) == 0 {
		return Collapse(nil, nil, nil), nil, nil, nil
	}

	ids, err := s.photos.FilterPhotoIDs(ctx, q.Filter, ClusterMemberIDs(clusters))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("filter cluster members: %w", err)
	}
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}

	return Collapse(clusters, q.GroupTypes, present), present, clusters, nil
}

func totalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// List returns one page of the gallery.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	start := time.Now()
	q = s.normalize(q)

	count, err := s.photos.CountPhotos(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}

	collapsed, members, err := s.collapseWithMembers(ctx, q)
	if err != nil {
		return nil, err
	}

	total := count - collapsed.Removed
	page := &Page{
		Items:      []Item{},
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: totalPages(total, q.Limit),
		Shuffled:   q.Shuffle,
		Seed:       q.Seed,
		Grouped:    q.Grouped,
	}

	// Compare pages before computing the offset; (page-1)*limit overflows for huge pages.
	if q.Page <= page.TotalPages {
		photos, err := s.photos.ListPhotos(ctx, database.PhotoQuery{
			Filter:  q.Filter,
			Exclude: collapsed.Hidden,
			Order:   q.order(),
			Limit:   q.Limit,
			Offset:  (q.Page - 1) * q.Limit,
		})
		if err != nil {
			return nil, fmt.Errorf("list photos: %w", err)
		}
		page.Items = attachMembers(photos, collapsed, members)
	}

	if q.Page == constants.DefaultPage {
		if page.Options, err = s.options(ctx, q.Filter); err != nil {
			return nil, err
		}
	}

	order := metrics.OrderLabel(q.Shuffle)
	for t, n := range collapsed.ByType {
		metrics.RecordCollapsed(string(t), n)
	}
	metrics.RecordList(order, q.Grouped, time.Since(start))

	return page, nil
}

// collapseWithMembers collapses q and loads the photos of every cluster member in scope.
// Members missing from that read were deleted after the candidate set was resolved;
// the set is collapsed again without them so the totals, the hidden ids and
// cluster_photos all come from the same snapshot.
func (s *Service) collapseWithMembers(ctx context.Context, q Query) (*Collapsed, map[string]database.Photo, error) {
	collapsed, present, clusters, err := s.collapseSnapshot(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	if len(collapsed.Members) == 0 {
		return collapsed, nil, nil
	}

	ids := make([]string, 0, len(present))
	for id := range present {
		ids = append(ids, id)
	}
	photos, err := s.photos.GetPhotosByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("get cluster photos: %w", err)
	}
	byID := make(map[string]database.Photo, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}

	if len(byID) < len(ids) {
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				delete(present, id)
			}
		}
		collapsed = Collapse(clusters, q.GroupTypes, present)
	}
	return collapsed, byID, nil
}

// attachMembers pairs the representatives on a page with their member photos.
func attachMembers(photos []database.Photo, collapsed *Collapsed, byID map[string]database.Photo) []Item {
	items := make([]Item, len(photos))
	for i, p := range photos {
		items[i].Photo = p
		ids := collapsed.Members[p.ID]
		if len(ids) < constants.MinClusterSize {
			continue
		}
		cluster := make([]database.Photo, 0, len(ids))
		for _, id := range ids {
			cluster = append(cluster, byID[id])
		}
		items[i].ClusterPhotos = cluster
	}
	return items
}

// options loads the filter option lists within the event/band/company scope.
func (s *Service) options(ctx context.Context, filter database.PhotoFilter) (*Options, error) {
	scope := filter.ScopeOnly()

	names, err := s.photos.ListPhotographers(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list photographers: %w", err)
	}
	collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics).SortStrings(names)
	if len(names) > constants.MaxPhotographers {
		names = names[:constants.MaxPhotographers]
	}

	companies, err := s.photos.ListCompanies(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	if names == nil {
		names = []string{}
	}
	if companies == nil {
		companies = []database.Company{}
	}
	return &Options{Photographers: names, Companies: companies}, nil
}

// Locate returns the position of a photo under the ordering of q.
// A collapsed member is located through its representative.
func (s *Service) Locate(ctx context.Context, q Query, photoID string) (*Position, error) {
	q = s.normalize(q)
	order := metrics.OrderLabel(q.Shuffle)

	pos, err := s.locate(ctx, q, photoID)
	switch {
	case errors.Is(err, ErrPhotoNotFound):
		metrics.RecordLocate(order, "not_found")
	case err != nil:
		metrics.RecordLocate(order, "error")
	default:
		metrics.RecordLocate(order, "found")
	}
	return pos, err
}

func (s *Service) locate(ctx context.Context, q Query, photoID string) (*Position, error) {
	count, err := s.photos.CountPhotos(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}

	collapsed, err := s.collapse(ctx, q)
	if err != nil {
		return nil, err
	}

	target := photoID
	if rep, ok := collapsed.Owner[photoID]; ok {
		target = rep
	}

	index, found, err := s.photos.PhotoPosition(ctx, database.PhotoQuery{
		Filter:  q.Filter,
		Exclude: collapsed.Hidden,
		Order:   q.order(),
	}, target)
	if err != nil {
		return nil, fmt.Errorf("photo position: %w", err)
	}
	if !found {
		return nil, ErrPhotoNotFound
	}

	return &Position{
		PhotoID:  target,
		Index:    index,
		Page:     index/q.Limit + 1,
		Limit:    q.Limit,
		Total:    count - collapsed.Removed,
		Shuffled: q.Shuffle,
		Seed:     q.Seed,
	}, nil
}
