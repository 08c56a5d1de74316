// Package client drives the brand video workflow against the server's REST
// endpoints: image extraction, prompt generation and video dispatch, plus the
// controller that keeps the page state between them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxResponseSize = 1 << 20

// Options configures the HTTP components.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type base struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func newBase(opts Options) base {
	b := base{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		log:        opts.Logger,
	}
	if b.httpClient == nil {
		b.httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	return b
}

type apiError struct {
	Error string `json:"error"`
}

func (b base) postJSON(ctx context.Context, op, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return newError(KindValidation, op, fmt.Errorf("failed to encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return newError(KindNetwork, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(op, req, out)
}

// do sends req and decodes a JSON body into out. A non-2xx status is a
// KindNetwork error, an error field in a 2xx body is KindApplication.
func (b base) do(op string, req *http.Request, out interface{}) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return newError(KindNetwork, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return newError(KindNetwork, op, fmt.Errorf("failed to read response: %w", err))
	}

	var ae apiError
	_ = json.Unmarshal(body, &ae)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ae.Error
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return &Error{Kind: KindNetwork, Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if ae.Error != "" {
		return newError(KindApplication, op, errors.New(ae.Error))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return newError(KindApplication, op, fmt.Errorf("invalid response: %w", err))
	}
	return nil
}
