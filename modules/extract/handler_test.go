package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"brandreel-server/modules/common/config"
)

type fakeProber struct {
	mu     sync.Mutex
	status map[string]int
	err    error
	seen   []string
}

func (f *fakeProber) Probe(_ context.Context, rawURL string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, rawURL)
	if f.err != nil {
		return 0, f.err
	}
	if s, ok := f.status[rawURL]; ok {
		return s, nil
	}
	return http.StatusOK, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ScrapeDoURL:      "https://api.scrape.do/",
		ExtractMaxImages: 12,
		ExtractProbe:     true,
	}
}

func newRouter(svc *Service) *mux.Router {
	r := mux.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/extract-images", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleExtractDirect(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><img src="/a.jpg"><img src="/b.jpg"><img src="/gone.jpg"></body></html>`)
	}))
	defer site.Close()

	prober := &fakeProber{status: map[string]int{site.URL + "/gone.jpg": http.StatusNotFound}}
	svc := NewService(testConfig(), site.Client(), prober)

	rec := post(t, newRouter(svc), `{"url":"`+site.URL+`/product"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ExtractResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{site.URL + "/a.jpg", site.URL + "/b.jpg"}
	if strings.Join(resp.Images, ",") != strings.Join(want, ",") {
		t.Errorf("images = %v, want %v", resp.Images, want)
	}
	if strings.Join(resp.ProductImages, ",") != strings.Join(resp.Images, ",") {
		t.Errorf("product_images = %v, want same as images", resp.ProductImages)
	}
	if len(prober.seen) != 3 {
		t.Errorf("probed %d urls, want 3", len(prober.seen))
	}
}

func TestHandleExtractThroughScrapeDo(t *testing.T) {
	var gotToken, gotURL string
	scraper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		gotURL = r.URL.Query().Get("url")
		fmt.Fprint(w, `<html><head><meta property="og:image" content="/hero.jpg"></head></html>`)
	}))
	defer scraper.Close()

	cfg := testConfig()
	cfg.ScrapeDoURL = scraper.URL + "/"
	cfg.ScrapeDoToken = "tok-123"
	cfg.ExtractProbe = false
	svc := NewService(cfg, scraper.Client(), &fakeProber{err: errors.New("should not be called")})

	rec := post(t, newRouter(svc), `{"url":"https://brand.test/item/9"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if gotToken != "tok-123" || gotURL != "https://brand.test/item/9" {
		t.Errorf("scrape.do query token=%q url=%q", gotToken, gotURL)
	}

	var resp ExtractResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Images) != 1 || resp.Images[0] != "https://brand.test/hero.jpg" {
		t.Errorf("images = %v", resp.Images)
	}
}

func TestHandleExtractErrors(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no pictures</body></html>`)
	}))
	defer empty.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer broken.Close()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "missing url", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "not a url", body: `{"url":"acme shoes"}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "no images", body: `{"url":"` + empty.URL + `"}`, wantStatus: http.StatusNotFound},
		{name: "upstream error", body: `{"url":"` + broken.URL + `"}`, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(testConfig(), http.DefaultClient, nil)
			rec := post(t, newRouter(svc), tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] == "" {
				t.Errorf("missing error field")
			}
		})
	}
}

func TestProbeKeepsImagesOnNetworkError(t *testing.T) {
	svc := &Service{prober: &fakeProber{err: errors.New("HEAD not allowed")}}
	in := []string{"https://x.test/a.jpg", "https://x.test/b.jpg"}
	if got := svc.probe(context.Background(), in); len(got) != 2 {
		t.Errorf("probe() = %v, want both kept", got)
	}
}
