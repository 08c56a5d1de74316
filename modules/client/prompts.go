package client

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"brandreel-server/modules/common/fallback"
	"brandreel-server/modules/common/model"
)

// PromptRequest - body of /generate-prompt and /generate-prompt-2
type PromptRequest struct {
	Text        string `json:"text"`
	FeatureType string `json:"feature_type"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

// PromptClient calls the prompt endpoints. Requests carrying an aspect ratio
// go to /generate-prompt-2, the rest to /generate-prompt.
type PromptClient struct {
	base
}

func NewPromptClient(opts Options) *PromptClient {
	return &PromptClient{base: newBase(opts)}
}

type promptResponse struct {
	PromptData    json.RawMessage      `json:"prompt_data"`
	Prompts       json.RawMessage      `json:"prompts"`
	FunctionCalls []model.FunctionCall `json:"function_calls"`
}

// GeneratePrompts returns the normalised prompt list, never empty on success.
func (p *PromptClient) GeneratePrompts(ctx context.Context, req PromptRequest) ([]model.PromptItem, error) {
	const op = "generate prompts"

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, newError(KindValidation, op, ErrValidation)
	}

	path := "/generate-prompt"
	if req.AspectRatio != "" {
		path = "/generate-prompt-2"
	}

	var resp promptResponse
	if err := p.postJSON(ctx, op, path, req, &resp); err != nil {
		p.log.Warn("[Client] prompt generation failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	for _, fc := range resp.FunctionCalls {
		p.log.Info("[Client] function call", zap.String("name", fc.Name), zap.Any("args", fc.Args))
	}

	items := fallback.PromptItems(resp.PromptData, resp.Prompts)
	if len(items) == 0 {
		p.log.Warn("[Client] prompt response was empty", zap.String("path", path))
		return nil, newError(KindEmptyResult, op, ErrNoPrompts)
	}
	return items, nil
}
