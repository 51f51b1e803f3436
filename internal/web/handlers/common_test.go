package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestRespondJSON_SetsStatusAndContentType(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Created", http.StatusCreated},
		{"BadRequest", http.StatusBadRequest},
		{"InternalServerError", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, map[string]string{"status": "ok"})

			assertStatusCode(t, recorder, tc.statusCode)
			assertContentType(t, recorder, "application/json")
		})
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "something went wrong")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "something went wrong")
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("event=1\r\nfake=entry"); got != "event=1fake=entry" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"page=3", 3},
		{"page=%203%20", 3},
		{"page=-2", -2},
		{"page=abc", 0},
		{"page=", 0},
		{"", 0},
		{"page=2.5", 0},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/photos?"+tc.query, nil)
			if got := queryInt(req, "page"); got != tc.want {
				t.Errorf("queryInt() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestQueryBool(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"unmatched=true", true},
		{"unmatched=1", true},
		{"unmatched=false", false},
		{"unmatched=yes", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/photos?"+tc.query, nil)
			if got := queryBool(req, "unmatched"); got != tc.want {
				t.Errorf("queryBool() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","other":1}`))

	if err := decodeJSON(httptest.NewRecorder(), req, &dst); err == nil {
		t.Error("expected error for unknown field")
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantBody   string
	}{
		{"no database", nil, http.StatusOK, "ok"},
		{"database reachable", fakePinger{}, http.StatusOK, "ok"},
		{"database down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			NewHealthHandler(tc.db).Check(recorder, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assertStatusCode(t, recorder, tc.wantStatus)
			var result map[string]string
			if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if result["status"] != tc.wantBody {
				t.Errorf("expected status '%s', got '%s'", tc.wantBody, result["status"])
			}
		})
	}
}
