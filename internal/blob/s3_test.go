package blob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/band-gallery/internal/config"
)

func setupS3(t *testing.T, objects map[string]string) *Store {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, ok := objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	store, err := New(context.Background(), config.StorageConfig{
		Bucket:    "photos",
		Region:    "us-east-1",
		Endpoint:  server.URL,
		AccessKey: "test",
		SecretKey: "test",
		PublicURL: "https://cdn.example.com",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func TestStore_Get(t *testing.T) {
	store := setupS3(t, map[string]string{"/photos/event-1/a.jpg": "jpeg-bytes"})

	data, err := store.Get(context.Background(), "event-1/a.jpg")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("expected object body, got %q", data)
	}
}

func TestStore_GetURL(t *testing.T) {
	store := setupS3(t, map[string]string{"/photos/event-1/a.jpg": "jpeg-bytes"})

	data, err := store.GetURL(context.Background(), "https://cdn.example.com/event-1/a.jpg")
	if err != nil {
		t.Fatalf("GetURL failed: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("expected object body, got %q", data)
	}
}

func TestStore_NotFound(t *testing.T) {
	store := setupS3(t, nil)

	_, err := store.Get(context.Background(), "missing.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_TooLarge(t *testing.T) {
	store := setupS3(t, map[string]string{"/photos/big.jpg": strings.Repeat("x", 64)})
	store.maxSize = 16

	_, err := store.Get(context.Background(), "big.jpg")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), config.StorageConfig{Region: "us-east-1"}); err == nil {
		t.Error("expected error without bucket")
	}
}
