package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"brandreel-server/modules/common/config"
)

// Prober is satisfied by *storage.Client.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (int, error)
}

type Service struct {
	httpClient  *http.Client
	scrapeDoURL string
	token       string
	maxImages   int
	prober      Prober
}

// NewService - prober may be nil to skip HEAD checks.
func NewService(cfg *config.Config, httpClient *http.Client, prober Prober) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if !cfg.ExtractProbe {
		prober = nil
	}
	return &Service{
		httpClient:  httpClient,
		scrapeDoURL: cfg.ScrapeDoURL,
		token:       cfg.ScrapeDoToken,
		maxImages:   cfg.ExtractMaxImages,
		prober:      prober,
	}
}

// Extract fetches pageURL (through scrape.do when a token is configured) and
// returns the product image URLs found on it.
func (s *Service) Extract(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	body, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	images, err := ParseImages(io.LimitReader(body, pageSizeLimit), base, s.maxImages)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse html: %v", ErrUpstream, err)
	}

	images = s.probe(ctx, images)
	zap.L().Info("[Extract] images extracted", zap.String("url", pageURL), zap.Int("count", len(images)))

	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

func (s *Service) fetchPage(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	target := pageURL
	if s.token != "" {
		u, err := url.Parse(s.scrapeDoURL)
		if err != nil {
			return nil, fmt.Errorf("invalid SCRAPE_DO_URL: %w", err)
		}
		q := u.Query()
		q.Set("token", s.token)
		q.Set("url", pageURL)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; brandreel/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		zap.L().Warn("[Extract] upstream returned non-2xx",
			zap.String("url", pageURL), zap.Int("status", resp.StatusCode), zap.Bool("scrape_do", s.token != ""))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return resp.Body, nil
}

// probe drops images whose HEAD request reports them gone. Network errors
// and other statuses keep the image since many CDNs reject HEAD.
func (s *Service) probe(ctx context.Context, images []string) []string {
	if s.prober == nil || len(images) == 0 {
		return images
	}

	keep := make([]bool, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrent)
	for i, u := range images {
		i, u := i, u
		g.Go(func() error {
			status, err := s.prober.Probe(gctx, u)
			keep[i] = err != nil || (status != http.StatusNotFound && status != http.StatusGone)
			return nil
		})
	}
	g.Wait()

	out := images[:0:0]
	for i, u := range images {
		if keep[i] {
			out = append(out, u)
		} else {
			zap.L().Debug("[Extract] dropping missing image", zap.String("url", u))
		}
	}
	return out
}
