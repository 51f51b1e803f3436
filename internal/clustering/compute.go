// Package clustering computes near-duplicate and scene clusters offline and stores
// them as algorithmic photo clusters.
package clustering

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/fingerprint"
)

// Result summarizes one clustering run.
type Result struct {
	ClusterType database.ClusterType
	EventID     string
	Candidates  int // photos with hashes or embeddings
	Clusters    int
	Photos      int // photos placed in a cluster
}

// Service runs clustering over stored hashes and embeddings.
type Service struct {
	hashes     database.HashStore
	embeddings database.EmbeddingReader
	clusters   database.ClusterWriter
	cfg        config.ClusteringConfig
}

// NewService creates a clustering service.
func NewService(hashes database.HashStore, embeddings database.EmbeddingReader, clusters database.ClusterWriter, cfg config.ClusteringConfig) *Service {
	return &Service{hashes: hashes, embeddings: embeddings, clusters: clusters, cfg: cfg}
}

// Compute rebuilds the algorithmic clusters of one type for an event.
// Manual clusters are left untouched. With dryRun nothing is written.
func (s *Service) Compute(ctx context.Context, clusterType database.ClusterType, eventID string, dryRun bool) (*Result, error) {
	var groups [][]string
	var metadata map[string]any
	result := &Result{ClusterType: clusterType, EventID: eventID}

	switch clusterType {
	case database.ClusterTypeNearDuplicate:
		hashes, err := s.hashes.ListHashes(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("list hashes: %w", err)
		}
		result.Candidates = len(hashes)
		groups = NearDuplicates(hashes, s.cfg.NearDuplicate.HashThreshold)
		metadata = map[string]any{
			"algorithm":      "phash_dhash_anchor",
			"hash_threshold": s.cfg.NearDuplicate.HashThreshold,
		}
	case database.ClusterTypeScene:
		embeddings, err := s.embeddings.ListEmbeddings(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("list embeddings: %w", err)
		}
		result.Candidates = len(embeddings)
		groups = Scenes(embeddings, SceneOptions{
			SimilarityThreshold: s.cfg.Scene.SimilarityThreshold,
			MaxNeighbors:        s.cfg.Scene.MaxNeighbors,
		})
		metadata = map[string]any{
			"algorithm":            "cosine_dbscan",
			"similarity_threshold": s.cfg.Scene.SimilarityThreshold,
		}
	default:
		return nil, fmt.Errorf("unknown cluster type %q", clusterType)
	}

	clusters := make([]database.PhotoCluster, 0, len(groups))
	for _, ids := range groups {
		rep := ids[0]
		md := make(map[string]any, len(metadata))
		for k, v := range metadata {
			md[k] = v
		}
		clusters = append(clusters, database.PhotoCluster{
			ClusterType:           clusterType,
			PhotoIDs:              ids,
			RepresentativePhotoID: &rep,
			Metadata:              md,
		})
		result.Photos += len(ids)
	}
	result.Clusters = len(clusters)

	log.Info().
		Str("cluster_type", string(clusterType)).
		Str("event", eventID).
		Int("candidates", result.Candidates).
		Int("clusters", result.Clusters).
		Bool("dry_run", dryRun).
		Msg("Computed photo clusters")

	if dryRun {
		return result, nil
	}
	if err := s.clusters.ReplaceAlgorithmicClusters(ctx, eventID, clusterType, clusters); err != nil {
		return nil, fmt.Errorf("store clusters: %w", err)
	}
	return result, nil
}

// HashPhoto computes and stores the hashes of one photo from its media bytes.
func HashPhoto(ctx context.Context, store database.HashStore, photoID string, data []byte) (fingerprint.Hashes, error) {
	h, err := fingerprint.ComputeBytes(data)
	if err != nil {
		return h, fmt.Errorf("hash photo %s: %w", photoID, err)
	}
	if err := store.SaveHash(ctx, database.PhotoHash{PhotoID: photoID, PHash: h.PHash, DHash: h.DHash}); err != nil {
		return h, err
	}
	return h, nil
}
