package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxBytes caps remote downloads.
const DefaultMaxBytes = 15 << 20

// Client fetches remote media (product images, generated videos).
type Client struct {
	httpClient *http.Client
}

// NewClient wraps httpClient; nil gets a client with a 30s timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient}
}

// Download GETs rawURL and returns the body and Content-Type. Bodies larger
// than maxBytes are rejected.
func (c *Client) Download(ctx context.Context, rawURL string, maxBytes int64) ([]byte, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; brandreel/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		zap.L().Warn("[Storage] download failed",
			zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return nil, "", fmt.Errorf("download failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("download exceeds %d bytes", maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// Probe issues a HEAD request and returns the status code.
func (c *Client) Probe(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create probe request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe failed: %w", err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
