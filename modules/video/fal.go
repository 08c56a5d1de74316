package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"brandreel-server/modules/common/config"
)

// fal.ai queue statuses
const (
	FalInQueue    = "IN_QUEUE"
	FalInProgress = "IN_PROGRESS"
	FalCompleted  = "COMPLETED"
)

// FalClient talks to the fal.ai queue API and falls back to the synchronous
// run endpoint when the queue path fails.
type FalClient struct {
	apiKey       string
	model        string
	queueURL     string
	runURL       string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
}

// NewFalClient - a nil httpClient gets one bounded by VIDEO_TIMEOUT_SECONDS since
// the synchronous endpoint holds the connection for the whole generation.
func NewFalClient(cfg *config.Config, httpClient *http.Client) *FalClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.VideoTimeout}
	}
	return &FalClient{
		apiKey:       cfg.FalAPIKey,
		model:        cfg.FalModel,
		queueURL:     strings.TrimRight(cfg.FalQueueURL, "/"),
		runURL:       strings.TrimRight(cfg.FalRunURL, "/"),
		pollInterval: cfg.PollInterval,
		timeout:      cfg.VideoTimeout,
		httpClient:   httpClient,
	}
}

// Generate submits to the queue, polls until COMPLETED and returns the video URL.
// onUpdate receives every polled status (may be nil).
func (c *FalClient) Generate(ctx context.Context, in GenerateInput, onUpdate func(QueueStatus)) (*GenerateOutput, error) {
	out, err := c.generateQueued(ctx, in, onUpdate)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	zap.L().Warn("[Fal] queue request failed, trying synchronous endpoint", zap.Error(err))
	videoURL, runErr := c.run(ctx, in)
	if runErr != nil {
		return nil, fmt.Errorf("queue: %v; sync: %w", err, runErr)
	}
	return &GenerateOutput{VideoURL: videoURL}, nil
}

func (c *FalClient) generateQueued(ctx context.Context, in GenerateInput, onUpdate func(QueueStatus)) (*GenerateOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	sub, err := c.submit(ctx, in)
	if err != nil {
		return nil, err
	}
	zap.L().Info("[Fal] request queued", zap.String("request_id", sub.RequestID), zap.String("model", c.model))

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.statusAt(ctx, sub.statusEndpoint(c))
		if err != nil {
			return nil, err
		}
		status.RequestID = sub.RequestID
		for _, l := range status.Logs {
			zap.L().Debug("[Fal] log", zap.String("request_id", sub.RequestID), zap.String("message", l.Message))
		}
		if onUpdate != nil {
			onUpdate(*status)
		}

		if status.Status == FalCompleted {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for request %s: %w", sub.RequestID, ctx.Err())
		case <-ticker.C:
		}
	}

	var result falResult
	if err := c.doJSON(ctx, http.MethodGet, sub.responseEndpoint(c), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch result: %w", err)
	}
	if result.Video.URL == "" {
		return nil, fmt.Errorf("no video url in result for request %s", sub.RequestID)
	}

	zap.L().Info("[Fal] request completed",
		zap.String("request_id", sub.RequestID), zap.Duration("took", time.Since(start)))
	return &GenerateOutput{VideoURL: result.Video.URL, RequestID: sub.RequestID}, nil
}

// Status fetches the queue status of requestID with logs.
func (c *FalClient) Status(ctx context.Context, requestID string) (*QueueStatus, error) {
	status, err := c.statusAt(ctx, c.requestURL(requestID)+"/status")
	if err != nil {
		return nil, err
	}
	status.RequestID = requestID
	return status, nil
}

// Cancel asks fal.ai to drop a queued request.
func (c *FalClient) Cancel(ctx context.Context, requestID string) error {
	return c.doJSON(ctx, http.MethodPut, c.requestURL(requestID)+"/cancel", nil, nil)
}

func (c *FalClient) submit(ctx context.Context, in GenerateInput) (*falSubmitResponse, error) {
	var sub falSubmitResponse
	if err := c.doJSON(ctx, http.MethodPost, c.queueURL+"/"+c.model, in, &sub); err != nil {
		return nil, fmt.Errorf("failed to submit request: %w", err)
	}
	if sub.RequestID == "" {
		return nil, fmt.Errorf("queue response missing request_id")
	}
	return &sub, nil
}

func (c *FalClient) statusAt(ctx context.Context, statusURL string) (*QueueStatus, error) {
	var status QueueStatus
	sep := "?"
	if strings.Contains(statusURL, "?") {
		sep = "&"
	}
	if err := c.doJSON(ctx, http.MethodGet, statusURL+sep+"logs=1", nil, &status); err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	return &status, nil
}

func (c *FalClient) run(ctx context.Context, in GenerateInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result falResult
	if err := c.doJSON(ctx, http.MethodPost, c.runURL+"/"+c.model, in, &result); err != nil {
		return "", err
	}
	if result.Video.URL == "" {
		return "", fmt.Errorf("no video url in sync result")
	}
	return result.Video.URL, nil
}

// requestURL - queue paths use only the app id (owner/app), not sub paths.
func (c *FalClient) requestURL(requestID string) string {
	app := c.model
	if parts := strings.SplitN(c.model, "/", 3); len(parts) == 3 {
		app = parts[0] + "/" + parts[1]
	}
	return fmt.Sprintf("%s/%s/requests/%s", c.queueURL, app, requestID)
}

func (c *FalClient) doJSON(ctx context.Context, method, url string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fal request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("fal API error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
