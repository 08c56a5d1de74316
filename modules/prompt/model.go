package prompt

import "brandreel-server/modules/common/model"

// GenerateRequest - POST /generate-prompt, /generate-prompt-2
type GenerateRequest struct {
	Text        string `json:"text" validate:"required"`
	FeatureType string `json:"feature_type" validate:"required,oneof=image video"`
	AspectRatio string `json:"aspect_ratio,omitempty" validate:"omitempty,oneof=16:9 9:16"`
}

// GenerateResponse - 4 styled prompts
type GenerateResponse struct {
	InputText     string               `json:"input_text"`
	FeatureType   string               `json:"feature_type"`
	AspectRatio   string               `json:"aspect_ratio,omitempty"`
	PromptData    []model.PromptItem   `json:"prompt_data"`
	FunctionCalls []model.FunctionCall `json:"function_calls,omitempty"`
}

// DetectStyleRequest - POST /detect-style
type DetectStyleRequest struct {
	Text        string `json:"text" validate:"required"`
	FeatureType string `json:"feature_type" validate:"required,oneof=image video"`
}

// DetectStyleResponse - single style descriptor
type DetectStyleResponse struct {
	Style string `json:"style"`
}
