package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const maxRetriesPerKey = 3

// Request is one text generation call.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int32
	Tools       []*genai.Tool
}

// Result collects the text parts and function calls of the first candidate.
type Result struct {
	Text          string
	FunctionCalls []genai.FunctionCall
}

// Client calls Gemini, rotating through API keys on rate limits.
type Client struct {
	apiKeys    []string
	model      string
	retryDelay time.Duration
}

func New(apiKeys []string, model string) *Client {
	return &Client{
		apiKeys:    apiKeys,
		model:      model,
		retryDelay: 2 * time.Second,
	}
}

// Generate retries each key up to 3 times on 429 and moves to the next key
// once a key is exhausted. Any other error is returned immediately.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if len(c.apiKeys) == 0 {
		return nil, fmt.Errorf("no API keys provided")
	}

	var lastErr error
	for keyIndex, apiKey := range c.apiKeys {
		for attempt := 1; attempt <= maxRetriesPerKey; attempt++ {
			result, err := c.generateOnce(ctx, apiKey, req)
			if err == nil {
				if keyIndex > 0 || attempt > 1 {
					zap.L().Info("[Gemini] succeeded after retry",
						zap.Int("key", keyIndex+1), zap.Int("attempt", attempt))
				}
				return result, nil
			}
			lastErr = err

			if !is429Error(err) {
				return nil, err
			}

			zap.L().Warn("[Gemini] rate limited",
				zap.Int("key", keyIndex+1), zap.Int("attempt", attempt), zap.Error(err))

			if attempt < maxRetriesPerKey {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(c.retryDelay):
				}
			}
		}
	}

	return nil, fmt.Errorf("all %d API keys exhausted (%d attempts each), last error: %w",
		len(c.apiKeys), maxRetriesPerKey, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, apiKey string, req Request) (*Result, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	m := client.GenerativeModel(c.model)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.Temperature > 0 {
		m.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		m.Tools = req.Tools
		m.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return nil, err
	}

	return collect(resp)
}

func collect(resp *genai.GenerateContentResponse) (*Result, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	result := &Result{}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			result.FunctionCalls = append(result.FunctionCalls, p)
		}
	}
	result.Text = strings.TrimSpace(sb.String())

	if result.Text == "" && len(result.FunctionCalls) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}
	return result, nil
}

func is429Error(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "resource_exhausted") ||
		strings.Contains(errStr, "resource has been exhausted")
}
