package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/database/mock"
	"github.com/kozaktomas/band-gallery/internal/gallery"
)

func strPtr(s string) *string { return &s }

// newTestStore seeds five photos of event-1; photo-1 and photo-2 form a near-duplicate cluster
func newTestStore(t *testing.T) *mock.MockStore {
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
		store.AddPhoto(p)
	}
	store.AddCluster(database.PhotoCluster{
		ID:          "cluster-1",
		ClusterType: database.ClusterTypeNearDuplicate,
		PhotoIDs:    []string{"photo-1", "photo-2"},
		Metadata:    map[string]any{"source": database.ClusterSourceAlgorithmic},
	})
	return store
}

// newTestPhotosHandler creates a PhotosHandler backed by store
func newTestPhotosHandler(store *mock.MockStore) *PhotosHandler {
	svc := gallery.NewService(store, store, config.GalleryConfig{DefaultLimit: 24, MaxLimit: 100})
	return NewPhotosHandler(svc, store)
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
