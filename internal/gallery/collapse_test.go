package gallery

import (
	"slices"
	"testing"
	"time"

	"github.com/kozaktomas/band-gallery/internal/database"
)

func cluster(id string, typ database.ClusterType, created int, rep string, members ...string) database.PhotoCluster {
	c := database.PhotoCluster{
		ID:          id,
		ClusterType: typ,
		PhotoIDs:    members,
		CreatedAt:   time.Date(2025, 6, 1, 0, 0, created, 0, time.UTC),
	}
	if rep != "" {
		c.RepresentativePhotoID = &rep
	}
	return c
}

func presentSet(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func TestCollapse(t *testing.T) {
	nd := database.ClusterTypeNearDuplicate
	sc := database.ClusterTypeScene

	tests := []struct {
		name        string
		clusters    []database.PhotoCluster
		requested   []database.ClusterType
		present     map[string]bool
		wantMembers map[string][]string
		wantRemoved int
	}{
		{
			name:        "no clusters",
			requested:   []database.ClusterType{nd},
			present:     presentSet("a"),
			wantMembers: map[string][]string{},
		},
		{
			name:        "designated representative survives",
			clusters:    []database.PhotoCluster{cluster("c1", nd, 1, "b", "a", "b", "c")},
			requested:   []database.ClusterType{nd},
			present:     presentSet("a", "b", "c"),
			wantMembers: map[string][]string{"b": {"a", "b", "c"}},
			wantRemoved: 2,
		},
		{
			name:        "representative defaults to first member",
			clusters:    []database.PhotoCluster{cluster("c1", nd, 1, "", "a", "b")},
			requested:   []database.ClusterType{nd},
			present:     presentSet("a", "b"),
			wantMembers: map[string][]string{"a": {"a", "b"}},
			wantRemoved: 1,
		},
		{
			name:        "filtered representative falls back to first survivor",
			clusters:    []database.PhotoCluster{cluster("c1", nd, 1, "a", "a", "b", "c")},
			requested:   []database.ClusterType{nd},
			present:     presentSet("b", "c"),
			wantMembers: map[string][]string{"b": {"b", "c"}},
			wantRemoved: 1,
		},
		{
			name:        "single survivor is not collapsed",
			clusters:    []database.PhotoCluster{cluster("c1", nd, 1, "", "a", "b")},
			requested:   []database.ClusterType{nd},
			present:     presentSet("a"),
			wantMembers: map[string][]string{},
		},
		{
			name:        "dangling members are ignored",
			clusters:    []database.PhotoCluster{cluster("c1", nd, 1, "", "gone", "a", "b")},
			requested:   []database.ClusterType{nd},
			present:     presentSet("a", "b"),
			wantMembers: map[string][]string{"a": {"a", "b"}},
			wantRemoved: 1,
		},
		{
			name:        "duplicate member ids count once",
			clusters:    []database.PhotoCluster{cluster("c1", nd, 1, "", "a", "a")},
			requested:   []database.ClusterType{nd},
			present:     presentSet("a"),
			wantMembers: map[string][]string{},
		},
		{
			name:        "unrequested type is ignored",
			clusters:    []database.PhotoCluster{cluster("c1", sc, 1, "", "a", "b")},
			requested:   []database.ClusterType{nd},
			present:     presentSet("a", "b"),
			wantMembers: map[string][]string{},
		},
		{
			name: "first requested type wins overlap",
			clusters: []database.PhotoCluster{
				cluster("nd1", nd, 2, "", "b", "c"),
				cluster("sc1", sc, 1, "", "a", "b", "d"),
			},
			requested:   []database.ClusterType{sc, nd},
			present:     presentSet("a", "b", "c", "d"),
			wantMembers: map[string][]string{"a": {"a", "b", "d"}},
			wantRemoved: 2,
		},
		{
			name: "earlier cluster wins within a type",
			clusters: []database.PhotoCluster{
				cluster("late", nd, 5, "", "c", "d", "e"),
				cluster("early", nd, 1, "", "a", "c"),
			},
			requested:   []database.ClusterType{nd},
			present:     presentSet("a", "c", "d", "e"),
			wantMembers: map[string][]string{"a": {"a", "c"}, "d": {"d", "e"}},
			wantRemoved: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collapse(tt.clusters, tt.requested, tt.present)
			if got.Removed != tt.wantRemoved {
				t.Errorf("expected removed %d, got %d", tt.wantRemoved, got.Removed)
			}
			if len(got.Members) != len(tt.wantMembers) {
				t.Fatalf("expected %d groups, got %v", len(tt.wantMembers), got.Members)
			}
			for rep, want := range tt.wantMembers {
				if !slices.Equal(got.Members[rep], want) {
					t.Errorf("group %s: expected %v, got %v", rep, want, got.Members[rep])
				}
				for _, id := range want {
					if id == rep {
						continue
					}
					if got.Owner[id] != rep {
						t.Errorf("expected %s to be owned by %s, got %q", id, rep, got.Owner[id])
					}
					if !slices.Contains(got.Hidden, id) {
						t.Errorf("expected %s to be hidden", id)
					}
				}
			}
			if len(got.Hidden) != got.Removed {
				t.Errorf("hidden %v does not match removed %d", got.Hidden, got.Removed)
			}
		})
	}
}

func TestCollapse_HiddenAreNeverRepresentatives(t *testing.T) {
	clusters := []database.PhotoCluster{
		cluster("c1", database.ClusterTypeNearDuplicate, 1, "", "a", "b"),
		cluster("c2", database.ClusterTypeScene, 2, "b", "b", "c", "d"),
	}
	got := Collapse(clusters, database.KnownClusterTypes, presentSet("a", "b", "c", "d"))

	for _, id := range got.Hidden {
		if got.IsRepresentative(id) {
			t.Errorf("%s is both hidden and a representative", id)
		}
	}
	if got.ByType[database.ClusterTypeNearDuplicate] != 1 || got.ByType[database.ClusterTypeScene] != 1 {
		t.Errorf("unexpected per-type counts: %v", got.ByType)
	}
	// c2 loses b to c1, so c is its representative
	if !slices.Equal(got.Members["c"], []string{"c", "d"}) {
		t.Errorf("expected c to represent [c d], got %v", got.Members["c"])
	}
}

func TestClusterMemberIDs(t *testing.T) {
	clusters := []database.PhotoCluster{
		{PhotoIDs: []string{"a", "b"}},
		{PhotoIDs: []string{"b", "c"}},
	}
	got := ClusterMemberIDs(clusters)
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c], got %v", got)
	}
}
