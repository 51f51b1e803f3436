package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/band-gallery/internal/database"
)

// ClustersHandler serves the admin photo cluster endpoints
type ClustersHandler struct {
	clusters database.ClusterWriter
	photos   database.PhotoReader
}

// NewClustersHandler creates a new clusters handler
func NewClustersHandler(clusters database.ClusterWriter, photos database.PhotoReader) *ClustersHandler {
	return &ClustersHandler{clusters: clusters, photos: photos}
}

// ClusterResponse represents a photo cluster in API responses
type ClusterResponse struct {
	ID                    string         `json:"id"`
	EventID               *string        `json:"event_id"`
	ClusterType           string         `json:"cluster_type"`
	PhotoIDs              []string       `json:"photo_ids"`
	RepresentativePhotoID string         `json:"representative_photo_id"`
	Metadata              map[string]any `json:"metadata"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

type createClusterRequest struct {
	EventID               *string        `json:"event_id"`
	ClusterType           string         `json:"cluster_type" validate:"required,oneof=near_duplicate scene"`
	PhotoIDs              []string       `json:"photo_ids" validate:"min=2,unique,dive,required"`
	RepresentativePhotoID string         `json:"representative_photo_id"`
	Metadata              map[string]any `json:"metadata"`
}

type updateClusterRequest struct {
	PhotoIDs              []string `json:"photo_ids" validate:"min=2,unique,dive,required"`
	RepresentativePhotoID string   `json:"representative_photo_id"`
}

func clusterToResponse(c database.PhotoCluster) ClusterResponse {
	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return ClusterResponse{
		ID:                    c.ID,
		EventID:               c.EventID,
		ClusterType:           string(c.ClusterType),
		PhotoIDs:              c.PhotoIDs,
		RepresentativePhotoID: c.Representative(),
		Metadata:              metadata,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

// resolveRepresentative defaults the representative to the first member and
// rejects one outside the member list.
func resolveRepresentative(ids []string, rep string) (string, error) {
	rep = strings.TrimSpace(rep)
	if rep == "" {
		return ids[0], nil
	}
	if !slices.Contains(ids, rep) {
		return "", errors.New("representative_photo_id must be one of photo_ids")
	}
	return rep, nil
}

// checkPhotosExist reports whether every id has a photo row.
func (h *ClustersHandler) checkPhotosExist(r *http.Request, ids []string) (bool, error) {
	photos, err := h.photos.GetPhotosByIDs(r.Context(), ids)
	if err != nil {
		return false, fmt.Errorf("get photos: %w", err)
	}
	return len(photos) == len(ids), nil
}

// List handles GET /api/admin/photo-clusters
func (h *ClustersHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := database.ClusterListFilter{
		ClusterType: database.ClusterType(strings.TrimSpace(r.URL.Query().Get("type"))),
		EventID:     strings.TrimSpace(r.URL.Query().Get("event")),
	}
	if filter.ClusterType != "" && !filter.ClusterType.IsKnown() {
		respondError(w, http.StatusBadRequest, "unknown cluster type")
		return
	}

	clusters, err := h.clusters.SearchClusters(r.Context(), filter)
	if err != nil {
		logRequestError(r, err, "listing clusters")
		respondError(w, http.StatusInternalServerError, "failed to list clusters")
		return
	}

	result := make([]ClusterResponse, len(clusters))
	for i, c := range clusters {
		result[i] = clusterToResponse(c)
	}
	respondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/admin/photo-clusters/{id}
func (h *ClustersHandler) Get(w http.ResponseWriter, r *http.Request) {
	cluster, err := h.clusters.GetCluster(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "cluster not found")
		return
	}
	if err != nil {
		logRequestError(r, err, "getting cluster")
		respondError(w, http.StatusInternalServerError, "failed to get cluster")
		return
	}
	respondJSON(w, http.StatusOK, clusterToResponse(*cluster))
}

// Create handles POST /api/admin/photo-clusters. Clusters created here are manual
// and survive algorithmic recomputation.
func (h *ClustersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClusterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := validateStruct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := resolveRepresentative(req.PhotoIDs, req.RepresentativePhotoID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.checkPhotosExist(r, req.PhotoIDs)
	if err != nil {
		logRequestError(r, err, "checking cluster photos")
		respondError(w, http.StatusInternalServerError, "failed to create cluster")
		return
	}
	if !ok {
		respondError(w, http.StatusBadRequest, "photo_ids contains unknown photos")
		return
	}

	metadata := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["source"] = database.ClusterSourceManual

	var eventID *string
	if req.EventID != nil && strings.TrimSpace(*req.EventID) != "" {
		id := strings.TrimSpace(*req.EventID)
		eventID = &id
	}

	cluster := &database.PhotoCluster{
		EventID:               eventID,
		ClusterType:           database.ClusterType(req.ClusterType),
		PhotoIDs:              req.PhotoIDs,
		RepresentativePhotoID: &rep,
		Metadata:              metadata,
	}
	if err := h.clusters.CreateCluster(r.Context(), cluster); err != nil {
		logRequestError(r, err, "creating cluster")
		respondError(w, http.StatusInternalServerError, "failed to create cluster")
		return
	}
	respondJSON(w, http.StatusCreated, clusterToResponse(*cluster))
}

// Update handles PUT /api/admin/photo-clusters/{id}
func (h *ClustersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateClusterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := validateStruct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := resolveRepresentative(req.PhotoIDs, req.RepresentativePhotoID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.checkPhotosExist(r, req.PhotoIDs)
	if err != nil {
		logRequestError(r, err, "checking cluster photos")
		respondError(w, http.StatusInternalServerError, "failed to update cluster")
		return
	}
	if !ok {
		respondError(w, http.StatusBadRequest, "photo_ids contains unknown photos")
		return
	}

	cluster := &database.PhotoCluster{
		ID:                    chi.URLParam(r, "id"),
		PhotoIDs:              req.PhotoIDs,
		RepresentativePhotoID: &rep,
	}
	err = h.clusters.UpdateCluster(r.Context(), cluster)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "cluster not found")
		return
	}
	if err != nil {
		logRequestError(r, err, "updating cluster")
		respondError(w, http.StatusInternalServerError, "failed to update cluster")
		return
	}
	respondJSON(w, http.StatusOK, clusterToResponse(*cluster))
}

// Delete handles DELETE /api/admin/photo-clusters/{id}
func (h *ClustersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.clusters.DeleteCluster(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "cluster not found")
		return
	}
	if err != nil {
		logRequestError(r, err, "deleting cluster")
		respondError(w, http.StatusInternalServerError, "failed to delete cluster")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
