package fallback

import (
	"encoding/json"
	"fmt"
	"strings"

	"brandreel-server/modules/common/model"
)

// PlaceholderPrompt fills prompt slots the backend did not return.
const PlaceholderPrompt = "content unavailable"

// DefaultStyle labels a prompt that came without one.
func DefaultStyle(index int) string {
	return fmt.Sprintf("Style %d", index+1)
}

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value interface{}, fallback string) string {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return fallback
}

// SafeAspectRatio falls back to def for unsupported ratios.
func SafeAspectRatio(value interface{}, def string) string {
	ratio := SafeString(value, def)
	if !model.IsAspectRatio(ratio) {
		return def
	}
	return ratio
}

// SafeDuration falls back to def for unsupported durations. Bare numbers get an "s" suffix.
func SafeDuration(value interface{}, def string) string {
	d := SafeString(value, def)
	if !strings.HasSuffix(d, "s") {
		d += "s"
	}
	if !model.IsDuration(d) {
		return def
	}
	return d
}

// PromptItems decodes either shape the prompt endpoints produce: structured
// prompt_data objects or a legacy list of bare strings. Entries without prompt
// text are dropped.
func PromptItems(promptData, prompts json.RawMessage) []model.PromptItem {
	var items []model.PromptItem

	if len(promptData) > 0 {
		var raw []interface{}
		if err := json.Unmarshal(promptData, &raw); err == nil {
			for _, entry := range raw {
				switch v := entry.(type) {
				case map[string]interface{}:
					text := SafeString(v["prompt"], "")
					if text == "" {
						continue
					}
					items = append(items, model.PromptItem{
						Style:  SafeString(v["style"], DefaultStyle(len(items))),
						Prompt: text,
					})
				case string:
					if text := strings.TrimSpace(v); text != "" {
						items = append(items, model.PromptItem{Style: DefaultStyle(len(items)), Prompt: text})
					}
				}
			}
		}
		if len(items) > 0 {
			return items
		}
	}

	if len(prompts) > 0 {
		var raw []string
		if err := json.Unmarshal(prompts, &raw); err == nil {
			for _, text := range raw {
				if text = strings.TrimSpace(text); text != "" {
					items = append(items, model.PromptItem{Style: DefaultStyle(len(items)), Prompt: text})
				}
			}
		}
	}

	return items
}
