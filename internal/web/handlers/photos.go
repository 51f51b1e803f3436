package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/gallery"
)

// PhotosHandler serves the public gallery endpoints
type PhotosHandler struct {
	gallery *gallery.Service
	photos  database.PhotoReader
}

// NewPhotosHandler creates a new photos handler
func NewPhotosHandler(svc *gallery.Service, photos database.PhotoReader) *PhotosHandler {
	return &PhotosHandler{gallery: svc, photos: photos}
}

// PhotoResponse represents a photo in API responses
type PhotoResponse struct {
	ID           string         `json:"id"`
	EventID      *string        `json:"event_id"`
	BandID       *string        `json:"band_id"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnail_url"`
	OriginalURL  *string        `json:"original_url,omitempty"`
	Photographer *string        `json:"photographer"`
	CapturedAt   *time.Time     `json:"captured_at"`
	UploadedAt   time.Time      `json:"uploaded_at"`
	Width        *int           `json:"width"`
	Height       *int           `json:"height"`
	FileSize     *int64         `json:"file_size,omitempty"`
	ContentType  *string        `json:"content_type,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// GroupedPhotoResponse is a photo listed with cluster grouping enabled.
// ClusterPhotos is null for photos that do not represent a cluster.
type GroupedPhotoResponse struct {
	PhotoResponse
	ClusterPhotos []PhotoRef `json:"cluster_photos"`
}

// PhotoRef is a compact reference to a cluster member
type PhotoRef struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	ThumbnailURL string     `json:"thumbnail_url"`
	Photographer *string    `json:"photographer"`
	CapturedAt   *time.Time `json:"captured_at"`
}

// PaginationResponse describes the slice returned by a list request
type PaginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// CompanyResponse is a company filter option
type CompanyResponse struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// PhotoListResponse is the body of GET /api/photos. Photos holds either
// []PhotoResponse or []GroupedPhotoResponse depending on groupTypes.
type PhotoListResponse struct {
	Photos        any                `json:"photos"`
	Pagination    PaginationResponse `json:"pagination"`
	Seed          string             `json:"seed,omitempty"`
	Photographers []string           `json:"photographers,omitempty"`
	Companies     []CompanyResponse  `json:"companies,omitempty"`
}

// PositionResponse is the body of GET /api/photos/{id}/position
type PositionResponse struct {
	PhotoID string `json:"photoId"`
	Index   int    `json:"index"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Total   int    `json:"total"`
	Seed    string `json:"seed,omitempty"`
}

func photoToResponse(p database.Photo) PhotoResponse {
	return PhotoResponse{
		ID:           p.ID,
		EventID:      p.EventID,
		BandID:       p.BandID,
		URL:          p.URL,
		ThumbnailURL: p.ThumbnailURL,
		OriginalURL:  p.OriginalURL,
		Photographer: p.Photographer,
		CapturedAt:   p.CapturedAt,
		UploadedAt:   p.UploadedAt,
		Width:        p.Width,
		Height:       p.Height,
		FileSize:     p.FileSize,
		ContentType:  p.ContentType,
		Metadata:     p.Metadata,
	}
}

func photoToRef(p database.Photo) PhotoRef {
	return PhotoRef{
		ID:           p.ID,
		URL:          p.URL,
		ThumbnailURL: p.ThumbnailURL,
		Photographer: p.Photographer,
		CapturedAt:   p.CapturedAt,
	}
}

// parseGalleryQuery reads filters, grouping, seed and pagination from the query string.
// Nothing here rejects a request: unknown group types are dropped and bad numbers clamp.
func parseGalleryQuery(r *http.Request) gallery.Query {
	values := r.URL.Query()
	rawGroups := strings.TrimSpace(values.Get("groupTypes"))

	return gallery.Query{
		Filter: database.PhotoFilter{
			EventID:       strings.TrimSpace(values.Get("event")),
			BandID:        strings.TrimSpace(values.Get("band")),
			CompanySlug:   strings.TrimSpace(values.Get("company")),
			Photographer:  strings.TrimSpace(values.Get("photographer")),
			UnmatchedOnly: queryBool(r, "unmatched"),
		},
		GroupTypes: database.ParseClusterTypes(rawGroups),
		Grouped:    rawGroups != "",
		Shuffle:    values.Has("shuffle"),
		Seed:       values.Get("shuffle"),
		Page:       queryInt(r, "page"),
		Limit:      queryInt(r, "limit"),
	}
}

func pageToResponse(page *gallery.Page) PhotoListResponse {
	resp := PhotoListResponse{
		Pagination: PaginationResponse{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
		Seed: page.Seed,
	}

	if page.Grouped {
		photos := make([]GroupedPhotoResponse, len(page.Items))
		for i, item := range page.Items {
			photos[i].PhotoResponse = photoToResponse(item.Photo)
			if len(item.ClusterPhotos) > 0 {
				refs := make([]PhotoRef, len(item.ClusterPhotos))
				for j, m := range item.ClusterPhotos {
					refs[j] = photoToRef(m)
				}
				photos[i].ClusterPhotos = refs
			}
		}
		resp.Photos = photos
	} else {
		photos := make([]PhotoResponse, len(page.Items))
		for i, item := range page.Items {
			photos[i] = photoToResponse(item.Photo)
		}
		resp.Photos = photos
	}

	if page.Options != nil {
		resp.Photographers = page.Options.Photographers
		resp.Companies = make([]CompanyResponse, len(page.Options.Companies))
		for i, c := range page.Options.Companies {
			resp.Companies[i] = CompanyResponse{Slug: c.Slug, Name: c.Name}
		}
	}
	return resp
}

// List handles GET /api/photos
func (h *PhotosHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.gallery.List(r.Context(), parseGalleryQuery(r))
	if err != nil {
		logRequestError(r, err, "listing photos")
		respondError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}
	respondJSON(w, http.StatusOK, pageToResponse(page))
}

// Get handles GET /api/photos/{id}
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	photo, err := h.photos.GetPhoto(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "photo not found")
		return
	}
	if err != nil {
		logRequestError(r, err, "getting photo")
		respondError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	respondJSON(w, http.StatusOK, photoToResponse(*photo))
}

// Position handles GET /api/photos/{id}/position. It locates a photo under the
// same filters, grouping and seed as a list request.
func (h *PhotosHandler) Position(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pos, err := h.gallery.Locate(r.Context(), parseGalleryQuery(r), id)
	if errors.Is(err, gallery.ErrPhotoNotFound) {
		respondError(w, http.StatusNotFound, "photo not found")
		return
	}
	if err != nil {
		logRequestError(r, err, "locating photo")
		respondError(w, http.StatusInternalServerError, "failed to locate photo")
		return
	}
	respondJSON(w, http.StatusOK, PositionResponse{
		PhotoID: pos.PhotoID,
		Index:   pos.Index,
		Page:    pos.Page,
		Limit:   pos.Limit,
		Total:   pos.Total,
		Seed:    pos.Seed,
	})
}
