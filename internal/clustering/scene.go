package clustering

import (
	"math/rand"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/band-gallery/internal/constants"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/fingerprint"
)

// exactSearchLimit is the largest photo count compared pairwise instead of through HNSW.
const exactSearchLimit = 500

// SceneOptions configures scene grouping.
type SceneOptions struct {
	SimilarityThreshold float64 // min cosine similarity of neighbouring photos
	MaxNeighbors        int     // HNSW candidates examined per photo
	ExactLimit          int     // photo counts up to this are compared pairwise; 0 uses the default
}

// Scenes groups photos whose embeddings are connected through neighbours with
// cosine distance at most 1 - SimilarityThreshold. This is DBSCAN with two
// samples per core point: every photo with a close neighbour joins its component,
// isolated photos stay ungrouped. Groups list members in input order.
func Scenes(embeddings []database.PhotoEmbedding, opts SceneOptions) [][]string {
	eps := 1 - opts.SimilarityThreshold
	if opts.MaxNeighbors < 1 {
		opts.MaxNeighbors = constants.DefaultSceneNeighbors
	}
	if opts.ExactLimit <= 0 {
		opts.ExactLimit = exactSearchLimit
	}

	valid := make([]database.PhotoEmbedding, 0, len(embeddings))
	for _, e := range embeddings {
		if fingerprint.CosineSimilarity(e.Embedding, e.Embedding) > 0 {
			valid = append(valid, e)
		}
	}
	if len(valid) < constants.MinClusterSize {
		return nil
	}

	uf := newUnionFind(len(valid))
	if len(valid) <= opts.ExactLimit {
		for i := range valid {
			for j := i + 1; j < len(valid); j++ {
				if fingerprint.CosineDistance(valid[i].Embedding, valid[j].Embedding) <= eps {
					uf.union(i, j)
				}
			}
		}
	} else {
		linkHNSW(uf, valid, eps, opts.MaxNeighbors)
	}

	var groups [][]string
	for _, members := range uf.groups(constants.MinClusterSize) {
		ids := make([]string, len(members))
		for i, idx := range members {
			ids[i] = valid[idx].PhotoID
		}
		groups = append(groups, ids)
	}
	return groups
}

// linkHNSW unions each photo with the approximate neighbours found within eps.
func linkHNSW(uf *unionFind, embeddings []database.PhotoEmbedding, eps float64, k int) {
	g := hnsw.NewGraph[int]()
	g.M = 16
	g.Ml = 1.0 / 16
	g.EfSearch = max(k, 20)
	g.Distance = hnsw.CosineDistance
	g.Rng = rand.New(rand.NewSource(1))

	for i, e := range embeddings {
		g.Add(hnsw.MakeNode(i, e.Embedding))
	}

	for i, e := range embeddings {
		for _, n := range g.Search(e.Embedding, k+1) {
			if n.Key == i {
				continue
			}
			if fingerprint.CosineDistance(e.Embedding, n.Value) <= eps {
				uf.union(i, n.Key)
			}
		}
	}
}
