package fallback

import (
	"encoding/json"
	"testing"
)

func TestSafeString(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{name: "string", value: "  bold ", want: "bold"},
		{name: "blank", value: "   ", want: "fb"},
		{name: "non string", value: 12, want: "fb"},
		{name: "nil", value: nil, want: "fb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeString(tt.value, "fb"); got != tt.want {
				t.Errorf("SafeString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSafeAspectRatioAndDuration(t *testing.T) {
	if got := SafeAspectRatio("16:9", "9:16"); got != "16:9" {
		t.Errorf("SafeAspectRatio(16:9) = %q", got)
	}
	if got := SafeAspectRatio("4:3", "9:16"); got != "9:16" {
		t.Errorf("SafeAspectRatio(4:3) = %q", got)
	}
	if got := SafeDuration("5", "8s"); got != "5s" {
		t.Errorf("SafeDuration(5) = %q", got)
	}
	if got := SafeDuration("30s", "8s"); got != "8s" {
		t.Errorf("SafeDuration(30s) = %q", got)
	}
	if got := SafeDuration(nil, "8s"); got != "8s" {
		t.Errorf("SafeDuration(nil) = %q", got)
	}
}

func TestPromptItems(t *testing.T) {
	tests := []struct {
		name       string
		promptData string
		prompts    string
		wantStyles []string
		wantTexts  []string
	}{
		{
			name:       "structured",
			promptData: `[{"style":"Bold","prompt":"A sneaker on fire"},{"prompt":"Rain on glass"}]`,
			wantStyles: []string{"Bold", "Style 2"},
			wantTexts:  []string{"A sneaker on fire", "Rain on glass"},
		},
		{
			name:       "legacy strings",
			prompts:    `["one", "  ", "two"]`,
			wantStyles: []string{"Style 1", "Style 2"},
			wantTexts:  []string{"one", "two"},
		},
		{
			name:       "structured wins over legacy",
			promptData: `[{"style":"A","prompt":"x"}]`,
			prompts:    `["y"]`,
			wantStyles: []string{"A"},
			wantTexts:  []string{"x"},
		},
		{
			name:       "empty structured falls back to legacy",
			promptData: `[{"style":"A","prompt":""}]`,
			prompts:    `["y"]`,
			wantStyles: []string{"Style 1"},
			wantTexts:  []string{"y"},
		},
		{
			name:       "strings inside prompt_data",
			promptData: `["plain"]`,
			wantStyles: []string{"Style 1"},
			wantTexts:  []string{"plain"},
		},
		{
			name:       "nothing",
			promptData: `not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pd, ps json.RawMessage
			if tt.promptData != "" {
				pd = json.RawMessage(tt.promptData)
			}
			if tt.prompts != "" {
				ps = json.RawMessage(tt.prompts)
			}
			got := PromptItems(pd, ps)
			if len(got) != len(tt.wantTexts) {
				t.Fatalf("len = %d, want %d (%+v)", len(got), len(tt.wantTexts), got)
			}
			for i := range got {
				if got[i].Style != tt.wantStyles[i] || got[i].Prompt != tt.wantTexts[i] {
					t.Errorf("item %d = %+v", i, got[i])
				}
			}
		})
	}
}
