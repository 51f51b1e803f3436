package gallery

import (
	"cmp"
	"slices"

	"github.com/kozaktomas/band-gallery/internal/constants"
	"github.com/kozaktomas/band-gallery/internal/database"
)

// Collapsed describes how a candidate set is rewritten by cluster collapsing.
type Collapsed struct {
	// Members maps a representative photo id to the surviving members of its cluster,
	// representative included, in cluster member order.
	Members map[string][]string
	// Owner maps every hidden member to the representative that replaced it.
	Owner map[string]string
	// Hidden lists the ids removed from standalone consideration.
	Hidden []string
	// Removed is the number of elements the candidate set shrinks by.
	Removed int
	// ByType counts collapsed clusters per cluster type.
	ByType map[database.ClusterType]int
}

// IsRepresentative reports whether id stands in for a collapsed cluster.
func (c *Collapsed) IsRepresentative(id string) bool {
	_, ok := c.Members[id]
	return ok
}

// ClusterMemberIDs returns the distinct member ids of all clusters in first-seen order.
func ClusterMemberIDs(clusters []database.PhotoCluster) []string {
	seen := make(map[string]bool)
	var ids []string
	for i := range clusters {
		for _, id := range clusters[i].PhotoIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Collapse decides grouping over the candidate set.
//
// present holds the cluster member ids that exist and match the current filters.
// Clusters are visited by the position of their type in requested, then by creation
// time and id, so the first cluster to claim a photo wins. A cluster collapses only
// when at least two of its unclaimed members are present; otherwise its members stay
// standalone. The designated representative is kept when it survives, otherwise the
// first surviving member represents the cluster.
func Collapse(clusters []database.PhotoCluster, requested []database.ClusterType, present map[string]bool) *Collapsed {
	result := &Collapsed{
		Members: make(map[string][]string),
		Owner:   make(map[string]string),
		ByType:  make(map[database.ClusterType]int),
	}

	rank := make(map[database.ClusterType]int, len(requested))
	for i, t := range requested {
		if _, ok := rank[t]; !ok {
			rank[t] = i
		}
	}

	ordered := make([]*database.PhotoCluster, 0, len(clusters))
	for i := range clusters {
		if _, ok := rank[clusters[i].ClusterType]; ok {
			ordered = append(ordered, &clusters[i])
		}
	}
	slices.SortStableFunc(ordered, func(a, b *database.PhotoCluster) int {
		if c := cmp.Compare(rank[a.ClusterType], rank[b.ClusterType]); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	claimed := make(map[string]bool)
	for _, cluster := range ordered {
		var survivors []string
		for _, id := range cluster.PhotoIDs {
			if !present[id] || claimed[id] || slices.Contains(survivors, id) {
				continue
			}
			survivors = append(survivors, id)
		}
		if len(survivors) < constants.MinClusterSize {
			continue
		}

		rep := survivors[0]
		if designated := cluster.Representative(); slices.Contains(survivors, designated) {
			rep = designated
		}

		for _, id := range survivors {
			claimed[id] = true
			if id != rep {
				result.Owner[id] = rep
				result.Hidden = append(result.Hidden, id)
			}
		}
		result.Members[rep] = survivors
		result.Removed += len(survivors) - 1
		result.ByType[cluster.ClusterType]++
	}

	return result
}
