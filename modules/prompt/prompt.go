package prompt

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"brandreel-server/modules/common/model"
)

// minPromptLength - shorter sections are treated as noise
const minPromptLength = 10

// DefaultStyle labels the fallback prompt built from the user's own text.
const DefaultStyle = "default"

// VideoSettingsFunction is the tool /generate-prompt-2 declares to the model.
const VideoSettingsFunction = "recommend_video_settings"

// buildSystemInstruction - 4개의 서로 다른 스타일 프롬프트 요청
func buildSystemInstruction(featureType, aspectRatio string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `Your task is to write 4 different prompts for generating a %s from the text the user provides.

Pick a distinct style for every prompt and put the style at the top of the prompt.

Rules:
1. Every prompt must be between 20 and 75 words.
2. Every prompt must offer a different approach and style.
3. The prompts must be directly usable for %s generation.
4. Name a clear style for each prompt (for example: cinematic, photorealistic, anime, 3D render, oil painting).
`, featureType, featureType)

	if aspectRatio != "" {
		fmt.Fprintf(&sb, "5. Compose every shot for a %s frame.\n", aspectRatio)
	}

	sb.WriteString(`
Answer in exactly this format, with a blank line between blocks:

STYLE1: [style of the first prompt]
[Prompt 1]

STYLE2: [style of the second prompt]
[Prompt 2]

STYLE3: [style of the third prompt]
[Prompt 3]

STYLE4: [style of the fourth prompt]
[Prompt 4]
`)
	return sb.String()
}

func buildUserMessage(text, featureType string) string {
	return fmt.Sprintf("Text: %s\nType: %s", text, featureType)
}

// styleInstructions - detect-style system instruction per feature type
var styleInstructions = map[string]string{
	model.FeatureImage: `Objective:
Analyze the given text and determine the most appropriate artistic style for an image based on its descriptive elements.
The detected style should reflect the atmosphere, mood and composition implied by the text.

Consider lighting, depth and perspective, color palette, texture and rendering.

Output Format:
Provide a single style descriptor that encapsulates the detected artistic characteristics. Keep it concise and relevant to the provided text.`,

	model.FeatureVideo: `Objective:
Analyze the given text and determine the most appropriate cinematic style for a video based on its descriptive elements.
The detected style should reflect the motion, pacing and atmosphere implied by the text.

Consider camera movement, editing style, lighting and mood, color grading.

Output Format:
Provide a single style descriptor that encapsulates the detected cinematic characteristics. Keep it concise and relevant to the provided text.`,
}

// videoSettingsTool lets the model suggest render settings next to the prompts.
func videoSettingsTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        VideoSettingsFunction,
			Description: "Recommend render settings for the generated video prompts.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"aspect_ratio": {
						Type: genai.TypeString,
						Enum: model.AspectRatios,
					},
					"duration": {
						Type: genai.TypeString,
						Enum: model.Durations,
					},
					"camera_motion": {
						Type:        genai.TypeString,
						Description: "Suggested camera movement, e.g. slow dolly in.",
					},
				},
				Required: []string{"aspect_ratio", "duration"},
			},
		}},
	}
}

// ParsePrompts splits model output into styled prompts.
//
// Blocks are separated by a blank line. A block counts when its first line
// contains "STYLE" and a colon; the text after the colon is the style and the
// remaining lines joined with spaces are the prompt. Prompts of 10 characters
// or fewer are dropped. When nothing parses, the input text itself becomes a
// single "default" prompt. The result is padded to PromptSlots by repeating
// the first entry and truncated to PromptSlots.
func ParsePrompts(output, inputText string) []model.PromptItem {
	output = strings.ReplaceAll(output, "\r\n", "\n")

	var items []model.PromptItem
	for _, section := range strings.Split(output, "\n\n") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		lines := strings.Split(section, "\n")

		styleLine := lines[0]
		if !strings.Contains(strings.ToUpper(styleLine), "STYLE") || !strings.Contains(styleLine, ":") {
			continue
		}
		style := strings.SplitN(styleLine, ":", 2)[1]
		style = strings.Trim(strings.TrimSpace(style), "*#[] ")

		text := strings.TrimSpace(strings.Join(lines[1:], " "))
		if len(text) <= minPromptLength {
			continue
		}
		items = append(items, model.PromptItem{Style: style, Prompt: text})
	}

	if len(items) == 0 {
		items = append(items, model.PromptItem{Style: DefaultStyle, Prompt: inputText})
	}

	for len(items) < model.PromptSlots {
		items = append(items, items[0])
	}
	return items[:model.PromptSlots]
}

// convertFunctionCalls copies model tool calls into the response shape.
func convertFunctionCalls(calls []genai.FunctionCall) []model.FunctionCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]model.FunctionCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, model.FunctionCall{Name: c.Name, Args: c.Args})
	}
	return out
}
