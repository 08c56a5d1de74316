package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"brandreel-server/modules/common/gemini"
	"brandreel-server/modules/common/model"
	"brandreel-server/modules/common/utils"
)

const (
	promptTemperature = 0.7
	promptMaxTokens   = 1000
)

// TextGenerator is satisfied by *gemini.Client.
type TextGenerator interface {
	Generate(ctx context.Context, req gemini.Request) (*gemini.Result, error)
}

type Service struct {
	generator TextGenerator
}

func NewService(generator TextGenerator) *Service {
	return &Service{generator: generator}
}

// GeneratePrompts asks the model for 4 styled prompts. withSettings declares
// the recommend_video_settings tool and forwards the aspect ratio.
func (s *Service) GeneratePrompts(ctx context.Context, req *GenerateRequest, withSettings bool) (*GenerateResponse, error) {
	zap.L().Info("[Prompt] generating prompts",
		zap.String("text", utils.TruncateString(req.Text, 50)),
		zap.String("feature_type", req.FeatureType),
		zap.String("aspect_ratio", req.AspectRatio),
		zap.Bool("with_settings", withSettings))

	aspectRatio := ""
	var tools []*genai.Tool
	if withSettings {
		aspectRatio = req.AspectRatio
		if req.FeatureType == model.FeatureVideo {
			tools = []*genai.Tool{videoSettingsTool()}
		}
	}

	result, err := s.generator.Generate(ctx, gemini.Request{
		System:      buildSystemInstruction(req.FeatureType, aspectRatio),
		User:        buildUserMessage(req.Text, req.FeatureType),
		Temperature: promptTemperature,
		MaxTokens:   promptMaxTokens,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate prompts: %w", err)
	}

	// With tools the model may answer with the settings call alone; the
	// prompts then come from a second turn without tools.
	if result.Text == "" && len(result.FunctionCalls) > 0 {
		zap.L().Info("[Prompt] model returned only function calls, requesting prompt text",
			zap.Int("calls", len(result.FunctionCalls)))
		text, err := s.generator.Generate(ctx, gemini.Request{
			System:      buildSystemInstruction(req.FeatureType, aspectRatio),
			User:        buildUserMessage(req.Text, req.FeatureType) + settingsNote(result.FunctionCalls),
			Temperature: promptTemperature,
			MaxTokens:   promptMaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate prompts: %w", err)
		}
		result = &gemini.Result{Text: text.Text, FunctionCalls: result.FunctionCalls}
	}

	items := ParsePrompts(result.Text, req.Text)
	if items[0].Style == DefaultStyle {
		zap.L().Warn("[Prompt] no styled prompts in model output, using input text")
	}

	calls := convertFunctionCalls(result.FunctionCalls)
	for _, c := range calls {
		zap.L().Info("[Prompt] function call", zap.String("name", c.Name), zap.Any("args", c.Args))
	}

	return &GenerateResponse{
		InputText:     req.Text,
		FeatureType:   req.FeatureType,
		AspectRatio:   aspectRatio,
		PromptData:    items,
		FunctionCalls: calls,
	}, nil
}

// DetectStyle returns a single style descriptor for the text.
func (s *Service) DetectStyle(ctx context.Context, req *DetectStyleRequest) (string, error) {
	instruction, ok := styleInstructions[req.FeatureType]
	if !ok {
		return "", fmt.Errorf("invalid feature_type: %q", req.FeatureType)
	}

	result, err := s.generator.Generate(ctx, gemini.Request{
		System: instruction,
		User:   fmt.Sprintf("Text: %s\nFeature Type: %s\nDetermine the best style:", req.Text, req.FeatureType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to detect style: %w", err)
	}

	style := strings.TrimSpace(result.Text)
	if style == "" {
		return "", fmt.Errorf("model returned an empty style")
	}
	zap.L().Info("[Prompt] detected style", zap.String("style", style))
	return style, nil
}

// settingsNote tells the follow-up turn which settings were already chosen.
func settingsNote(calls []genai.FunctionCall) string {
	var sb strings.Builder
	for _, c := range calls {
		if c.Name != VideoSettingsFunction {
			continue
		}
		for _, key := range []string{"aspect_ratio", "duration"} {
			if v, ok := c.Args[key].(string); ok && v != "" {
				fmt.Fprintf(&sb, "\nRecommended %s: %s", key, v)
			}
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "\n" + sb.String() + "\nNow write the four styled prompts."
}
