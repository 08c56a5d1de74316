package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("pngdata"))
		case "/big":
			w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.Error(w, "gone", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		data, ct, err := c.Download(ctx, srv.URL+"/ok", 0)
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if string(data) != "pngdata" || ct != "image/png" {
			t.Errorf("got %q %q", data, ct)
		}
	})

	t.Run("non-200 fails", func(t *testing.T) {
		if _, _, err := c.Download(ctx, srv.URL+"/missing", 0); err == nil {
			t.Errorf("expected error for 404")
		}
	})

	t.Run("too large fails", func(t *testing.T) {
		if _, _, err := c.Download(ctx, srv.URL+"/big", 10); err == nil {
			t.Errorf("expected size error")
		}
	})
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	code, err := NewClient(srv.Client()).Probe(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if code != http.StatusAccepted {
		t.Errorf("code = %d", code)
	}
}
