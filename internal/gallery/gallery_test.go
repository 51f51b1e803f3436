package gallery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/database/mock"
)

func strPtr(s string) *string { return &s }

// newFixture seeds five photos of one event, two of them sharing a near-duplicate cluster.
func newFixture(t *testing.T) (*mock.MockStore, *Service) {
	t.Helper()
	store := mock.NewMockStore()
	store.AddBand("band-1", "acme", "Acme Corp")
	base := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		captured := base.Add(time.Duration(i) * time.Minute)
		p := database.Photo{
			ID:           fmt.Sprintf("photo-%d", i),
			EventID:      strPtr("event-1"),
			URL:          fmt.Sprintf("https://cdn.example.com/photo-%d.jpg", i),
			ThumbnailURL: fmt.Sprintf("https://cdn.example.com/thumb-%d.jpg", i),
			CapturedAt:   &captured,
			Photographer: strPtr("Ann"),
		}
		if i <= 3 {
			p.BandID = strPtr("band-1")
		}
		if i == 5 {
			p.Photographer = strPtr("Érik")
		}
		store.AddPhoto(p)
	}
	store.AddCluster(database.PhotoCluster{
		ID:          "cluster-1",
		ClusterType: database.ClusterTypeNearDuplicate,
		PhotoIDs:    []string{"photo-1", "photo-2"},
		Metadata:    map[string]any{"source": database.ClusterSourceAlgorithmic},
	})
	svc := NewService(store, store, config.GalleryConfig{DefaultLimit: 24, MaxLimit: 100})
	return store, svc
}

func itemIDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.Photo.ID
	}
	return ids
}

func TestList_ShuffledSecondPageIsNotEmpty(t *testing.T) {
	_, svc := newFixture(t)

	page, err := svc.List(context.Background(), Query{Shuffle: true, Seed: "test-seed-123", Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 photos on page 2, got %d", len(page.Items))
	}
	if page.Total != 5 || page.TotalPages != 3 {
		t.Errorf("expected total 5 over 3 pages, got %d over %d", page.Total, page.TotalPages)
	}
	if page.Seed != "test-seed-123" {
		t.Errorf("expected seed echo, got %q", page.Seed)
	}
}

func TestList_PagesCoverCollectionOnce(t *testing.T) {
	for _, grouped := range []bool{false, true} {
		t.Run(fmt.Sprintf("grouped=%v", grouped), func(t *testing.T) {
			_, svc := newFixture(t)
			q := Query{Shuffle: true, Seed: "test-seed-123", Limit: 2}
			if grouped {
				q.Grouped = true
				q.GroupTypes = []database.ClusterType{database.ClusterTypeNearDuplicate}
			}

			first, err := svc.List(context.Background(), q)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			var seen []string
			for p := 1; p <= first.TotalPages; p++ {
				q.Page = p
				page, err := svc.List(context.Background(), q)
				if err != nil {
					t.Fatalf("List page %d failed: %v", p, err)
				}
				for _, id := range itemIDs(page.Items) {
					if slices.Contains(seen, id) {
						t.Errorf("photo %s returned twice", id)
					}
					seen = append(seen, id)
				}
			}
			if len(seen) != first.Total {
				t.Errorf("expected %d photos across pages, got %d", first.Total, len(seen))
			}
		})
	}
}

func TestList_Deterministic(t *testing.T) {
	_, svc := newFixture(t)
	q := Query{
		Grouped:    true,
		GroupTypes: []database.ClusterType{database.ClusterTypeNearDuplicate},
		Shuffle:    true,
		Seed:       "grouped-seed-123",
		Limit:      10,
	}

	a, err := svc.List(context.Background(), q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	b, err := svc.List(context.Background(), q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !slices.Equal(itemIDs(a.Items), itemIDs(b.Items)) {
		t.Errorf("expected identical order, got %v and %v", itemIDs(a.Items), itemIDs(b.Items))
	}
	if a.Seed != "grouped-seed-123" {
		t.Errorf("expected seed echo, got %q", a.Seed)
	}
}

func TestList_SeedSensitivity(t *testing.T) {
	store := mock.NewMockStore()
	for i := range 12 {
		store.AddPhoto(database.Photo{ID: fmt.Sprintf("p-%02d", i)})
	}
	svc := NewService(store, store, config.GalleryConfig{DefaultLimit: 24, MaxLimit: 100})

	a, err := svc.List(context.Background(), Query{Shuffle: true, Seed: "one"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	b, err := svc.List(context.Background(), Query{Shuffle: true, Seed: "two"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if slices.Equal(itemIDs(a.Items), itemIDs(b.Items)) {
		t.Errorf("expected different orders for different seeds")
	}
}

func TestList_CollapseReducesTotal(t *testing.T) {
	_, svc := newFixture(t)

	plain, err := svc.List(context.Background(), Query{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	grouped, err := svc.List(context.Background(), Query{
		Grouped:    true,
		GroupTypes: []database.ClusterType{database.ClusterTypeNearDuplicate},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if plain.Total != 5 || grouped.Total != 4 {
		t.Errorf("expected totals 5 and 4, got %d and %d", plain.Total, grouped.Total)
	}

	scene, err := svc.List(context.Background(), Query{
		Grouped:    true,
		GroupTypes: []database.ClusterType{database.ClusterTypeScene},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if scene.Total != plain.Total {
		t.Errorf("expected equal totals without qualifying clusters, got %d", scene.Total)
	}
}

func TestList_ClusterPhotos(t *testing.T) {
	_, svc := newFixture(t)

	page, err := svc.List(context.Background(), Query{
		Grouped:    true,
		GroupTypes: []database.ClusterType{database.ClusterTypeNearDuplicate},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !page.Grouped {
		t.Error("expected page to be grouped")
	}
	found := false
	for _, it := range page.Items {
		if it.Photo.ID == "photo-2" {
			t.Error("hidden member photo-2 returned standalone")
		}
		if it.ClusterPhotos == nil {
			continue
		}
		found = true
		if it.Photo.ID != "photo-1" {
			t.Errorf("expected photo-1 as representative, got %s", it.Photo.ID)
		}
		if len(it.ClusterPhotos) != 2 {
			t.Errorf("expected 2 cluster photos, got %d", len(it.ClusterPhotos))
		}
	}
	if !found {
		t.Error("expected one collapsed item")
	}
}

func TestList_FilteredMembersDoNotCollapse(t *testing.T) {
	store, svc := newFixture(t)
	store.AddPhoto(database.Photo{ID: "photo-6", EventID: strPtr("event-2")})
	store.AddCluster(database.PhotoCluster{
		ID:          "cross-event",
		ClusterType: database.ClusterTypeScene,
		PhotoIDs:    []string{"photo-4", "photo-6"},
	})

	page, err := svc.List(context.Background(), Query{
		Filter:     database.PhotoFilter{EventID: "event-1"},
		Grouped:    true,
		GroupTypes: []database.ClusterType{database.ClusterTypeScene},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("expected no collapse, got total %d", page.Total)
	}
	for _, it := range page.Items {
		if it.ClusterPhotos != nil {
			t.Errorf("unexpected cluster photos on %s", it.Photo.ID)
		}
	}
}

func TestList_ChronologicalFallback(t *testing.T) {
	_, svc := newFixture(t)

	page, err := svc.List(context.Background(), Query{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"photo-5", "photo-4", "photo-3", "photo-2", "photo-1"}
	if got := itemIDs(page.Items); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if page.Shuffled || page.Seed != "" {
		t.Errorf("expected no seed, got %q", page.Seed)
	}
}

func TestList_OutOfRangePage(t *testing.T) {
	store, svc := newFixture(t)

	page, err := svc.List(context.Background(), Query{Page: 9, Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 0 || page.Items == nil {
		t.Errorf("expected empty non-nil items, got %v", page.Items)
	}
	if page.Total != 5 || page.TotalPages != 3 {
		t.Errorf("expected totals to stay correct, got %d/%d", page.Total, page.TotalPages)
	}
	if store.Calls != 0 {
		t.Errorf("expected no list query for out-of-range page, got %d", store.Calls)
	}
	if page.Options != nil {
		t.Error("expected no filter options beyond the first page")
	}
}

func TestList_HugePageIsOutOfRange(t *testing.T) {
	pages := []int{math.MaxInt/2 + 2, math.MaxInt / 24, math.MaxInt}
	for _, p := range pages {
		t.Run(strconv.Itoa(p), func(t *testing.T) {
			store, svc := newFixture(t)
			page, err := svc.List(context.Background(), Query{Page: p, Limit: 2})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(page.Items) != 0 {
				t.Errorf("expected no items, got %v", itemIDs(page.Items))
			}
			if page.Total != 5 || page.TotalPages != 3 {
				t.Errorf("expected totals 5/3, got %d/%d", page.Total, page.TotalPages)
			}
			if store.Calls != 0 {
				t.Errorf("expected no list query, got %d", store.Calls)
			}
		})
	}
}

// vanishingStore hides photos from member lookups, as if they were deleted after
// the candidate set was resolved.
type vanishingStore struct {
	*mock.MockStore
	gone map[string]bool
}

func (s *vanishingStore) GetPhotosByIDs(ctx context.Context, ids []string) ([]database.Photo, error) {
	photos, err := s.MockStore.GetPhotosByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var out []database.Photo
	for _, p := range photos {
		if !s.gone[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestList_MemberDeletedDuringRequest(t *testing.T) {
	store, _ := newFixture(t)
	photos := &vanishingStore{MockStore: store, gone: map[string]bool{"photo-2": true}}
	svc := NewService(photos, store, config.GalleryConfig{DefaultLimit: 24, MaxLimit: 100})

	page, err := svc.List(context.Background(), Query{
		Grouped:    true,
		GroupTypes: []database.ClusterType{database.ClusterTypeNearDuplicate},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != len(page.Items) {
		t.Errorf("total %d does not match %d listed items", page.Total, len(page.Items))
	}
	if page.Total != 5 {
		t.Errorf("expected the broken cluster not to shrink the total, got %d", page.Total)
	}
	for _, it := range page.Items {
		if it.ClusterPhotos != nil {
			t.Errorf("expected no cluster photos on %s, got %d", it.Photo.ID, len(it.ClusterPhotos))
		}
	}
}

func TestList_Clamping(t *testing.T) {
	_, svc := newFixture(t)

	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, 24},
		{"negative", -3, -1, 1, 24},
		{"over max", 1, 1000, 1, 100},
		{"kept", 2, 3, 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(context.Background(), Query{Page: tt.page, Limit: tt.limit})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if page.Page != tt.wantPage || page.Limit != tt.wantLimit {
				t.Errorf("expected %d/%d, got %d/%d", tt.wantPage, tt.wantLimit, page.Page, page.Limit)
			}
		})
	}
}

func TestList_DailySeed(t *testing.T) {
	_, svc := newFixture(t)
	svc.now = func() time.Time { return time.Date(2025, 7, 4, 23, 30, 0, 0, time.UTC) }

	page, err := svc.List(context.Background(), Query{Shuffle: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Seed != "daily-2025-07-04" {
		t.Errorf("expected daily seed, got %q", page.Seed)
	}
}

func TestList_Options(t *testing.T) {
	_, svc := newFixture(t)

	page, err := svc.List(context.Background(), Query{Filter: database.PhotoFilter{Photographer: "ann"}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 4 {
		t.Errorf("expected 4 photos by Ann, got %d", page.Total)
	}
	if page.Options == nil {
		t.Fatal("expected options on first page")
	}
	if !slices.Equal(page.Options.Photographers, []string{"Ann", "Érik"}) {
		t.Errorf("expected photographers regardless of photographer filter, got %v", page.Options.Photographers)
	}
	if len(page.Options.Companies) != 1 || page.Options.Companies[0].Slug != "acme" {
		t.Errorf("unexpected companies %v", page.Options.Companies)
	}
}

func TestList_StoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		inject func(*mock.MockStore)
	}{
		{"count", func(m *mock.MockStore) { m.CountError = errors.New("boom") }},
		{"clusters", func(m *mock.MockStore) { m.ClusterError = errors.New("boom") }},
		{"filter", func(m *mock.MockStore) { m.FilterError = errors.New("boom") }},
		{"list", func(m *mock.MockStore) { m.ListError = errors.New("boom") }},
		{"members", func(m *mock.MockStore) { m.GetError = errors.New("boom") }},
		{"options", func(m *mock.MockStore) { m.OptionsError = errors.New("boom") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, svc := newFixture(t)
			tt.inject(store)
			_, err := svc.List(context.Background(), Query{
				Grouped:    true,
				GroupTypes: []database.ClusterType{database.ClusterTypeNearDuplicate},
			})
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLocate(t *testing.T) {
	_, svc := newFixture(t)
	q := Query{
		Grouped:    true,
		GroupTypes: []database.ClusterType{database.ClusterTypeNearDuplicate},
		Shuffle:    true,
		Seed:       "test-seed-123",
		Limit:      2,
	}

	var ordered []string
	for p := 1; p <= 2; p++ {
		q.Page = p
		page, err := svc.List(context.Background(), q)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		ordered = append(ordered, itemIDs(page.Items)...)
	}

	for i, id := range ordered {
		pos, err := svc.Locate(context.Background(), q, id)
		if err != nil {
			t.Fatalf("Locate(%s) failed: %v", id, err)
		}
		if pos.Index != i || pos.Page != i/2+1 || pos.Total != 4 {
			t.Errorf("Locate(%s) = %+v, expected index %d", id, pos, i)
		}
	}

	pos, err := svc.Locate(context.Background(), q, "photo-2")
	if err != nil {
		t.Fatalf("Locate hidden member failed: %v", err)
	}
	if pos.PhotoID != "photo-1" {
		t.Errorf("expected representative photo-1, got %s", pos.PhotoID)
	}

	if _, err := svc.Locate(context.Background(), q, "missing"); !errors.Is(err, ErrPhotoNotFound) {
		t.Errorf("expected ErrPhotoNotFound, got %v", err)
	}
}
