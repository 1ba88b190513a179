// ABOUTME: Tests for the HTTP store
// ABOUTME: Tests download, caching, missing files and read-only behavior
package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func newFileServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/res/1002.rbt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write([]byte("robot data"))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPReadCached(t *testing.T) {
	var hits atomic.Int32
	server := newFileServer(t, &hits)
	ctx := context.Background()

	store, err := NewHTTP(server.URL+"/res/", t.TempDir())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	for i := 0; i < 2; i++ {
		data, err := ReadFile(ctx, store, "1002.rbt")
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if string(data) != "robot data" {
			t.Errorf("read %d: got %q", i, data)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected 1 download, got %d", n)
	}

	if err := store.Delete(ctx, "1002.rbt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ReadFile(ctx, store, "1002.rbt"); err != nil {
		t.Fatalf("read after delete: %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("expected a fresh download after delete, got %d", n)
	}
}

func TestHTTPUncached(t *testing.T) {
	var hits atomic.Int32
	server := newFileServer(t, &hits)

	store, err := NewHTTP(server.URL+"/res", "")
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	data, err := ReadFile(context.Background(), store, "1002.rbt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "robot data" {
		t.Errorf("got %q", data)
	}
}

func TestHTTPMissingAndExists(t *testing.T) {
	var hits atomic.Int32
	server := newFileServer(t, &hits)
	ctx := context.Background()

	store, err := NewHTTP(server.URL+"/res", t.TempDir())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	if _, err := ReadFile(ctx, store, "9999.rbt"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	ok, err := store.Exists(ctx, "1002.rbt")
	if err != nil || !ok {
		t.Errorf("Exists(1002.rbt) = %v, %v", ok, err)
	}
	ok, err = store.Exists(ctx, "9999.rbt")
	if err != nil || ok {
		t.Errorf("Exists(9999.rbt) = %v, %v", ok, err)
	}
}

func TestHTTPReadOnly(t *testing.T) {
	store, err := NewHTTP("http://example.invalid", "")
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	if _, err := store.Write(context.Background(), "a.rbt"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestParseLocationHTTP(t *testing.T) {
	loc, err := ParseLocation("https://example.com/games/rama/1002.rbt", S3Config{})
	if err != nil {
		t.Fatalf("ParseLocation: %v", err)
	}
	h, ok := loc.Store.(*HTTP)
	if !ok {
		t.Fatalf("expected *HTTP store, got %T", loc.Store)
	}
	if h.base != "https://example.com/games/rama" || loc.Path != "1002.rbt" {
		t.Errorf("unexpected location base=%q path=%q", h.base, loc.Path)
	}
	if !strings.HasSuffix(h.cachePath(h.url(loc.Path)), ".rbt") {
		t.Errorf("cache path should keep the extension")
	}

	if _, err := ParseLocation("https://example.com/", S3Config{}); err == nil {
		t.Error("expected error for URL without a file")
	}
}
