package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/gorilla/mux"

	"brandreel-server/modules/common/gemini"
)

// fakeGenerator answers from results in order, then repeats result.
type fakeGenerator struct {
	result  *gemini.Result
	results []*gemini.Result
	err     error
	calls   []gemini.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req gemini.Request) (*gemini.Result, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > 0 {
		r := f.results[0]
		f.results = f.results[1:]
		return r, nil
	}
	return f.result, nil
}

func newTestRouter(gen TextGenerator) *mux.Router {
	r := mux.NewRouter()
	NewHandler(NewService(gen)).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGeneratePromptValidation(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		wantMsg string
	}{
		{name: "missing text", path: "/generate-prompt", body: `{"feature_type":"video"}`, wantMsg: missingParamsMessage},
		{name: "missing feature type", path: "/generate-prompt", body: `{"text":"Acme"}`, wantMsg: missingParamsMessage},
		{name: "bad feature type", path: "/generate-prompt", body: `{"text":"Acme","feature_type":"audio"}`, wantMsg: "Invalid feature_type: must be 'image' or 'video'"},
		{name: "bad aspect ratio", path: "/generate-prompt-2", body: `{"text":"Acme","feature_type":"video","aspect_ratio":"4:3"}`, wantMsg: "Invalid aspect_ratio: must be '16:9' or '9:16'"},
		{name: "bad json", path: "/generate-prompt", body: `{`, wantMsg: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			rec := doJSON(t, newTestRouter(gen), tt.path, tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] != tt.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tt.wantMsg)
			}
			if len(gen.calls) != 0 {
				t.Errorf("model called %d times on invalid input", len(gen.calls))
			}
		})
	}
}

func TestGeneratePromptWithSettings(t *testing.T) {
	gen := &fakeGenerator{result: &gemini.Result{
		Text: "STYLE1: Bold\nA sneaker on fire in a dark studio.",
		FunctionCalls: []genai.FunctionCall{{
			Name: VideoSettingsFunction,
			Args: map[string]any{"aspect_ratio": "16:9", "duration": "8s"},
		}},
	}}

	rec := doJSON(t, newTestRouter(gen), "/generate-prompt-2",
		`{"text":"Acme Shoes","feature_type":"video","aspect_ratio":"16:9"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.InputText != "Acme Shoes" || resp.FeatureType != "video" || resp.AspectRatio != "16:9" {
		t.Errorf("unexpected echo fields: %+v", resp)
	}
	if len(resp.PromptData) != 4 || resp.PromptData[0].Style != "Bold" {
		t.Errorf("prompt_data = %+v", resp.PromptData)
	}
	if len(resp.FunctionCalls) != 1 || resp.FunctionCalls[0].Args["duration"] != "8s" {
		t.Errorf("function_calls = %+v", resp.FunctionCalls)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("model calls = %d", len(gen.calls))
	}
	call := gen.calls[0]
	if len(call.Tools) != 1 {
		t.Errorf("tools = %d, want 1", len(call.Tools))
	}
	if call.Temperature != promptTemperature || call.MaxTokens != promptMaxTokens {
		t.Errorf("temperature/max tokens = %v/%v", call.Temperature, call.MaxTokens)
	}
	if !strings.Contains(call.System, "16:9") {
		t.Errorf("aspect ratio not forwarded to instruction")
	}
}

func TestGeneratePromptFunctionCallOnlyAnswer(t *testing.T) {
	gen := &fakeGenerator{results: []*gemini.Result{
		{FunctionCalls: []genai.FunctionCall{{
			Name: VideoSettingsFunction,
			Args: map[string]any{"aspect_ratio": "9:16", "duration": "6s"},
		}}},
		{Text: "STYLE1: Bold\nA sneaker bursting through a paper wall."},
	}}

	rec := doJSON(t, newTestRouter(gen), "/generate-prompt-2",
		`{"text":"Acme Shoes","feature_type":"video","aspect_ratio":"9:16"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.PromptData) != 4 {
		t.Fatalf("prompt_data = %+v", resp.PromptData)
	}
	for i, item := range resp.PromptData {
		if item.Prompt == "Acme Shoes" {
			t.Errorf("slot %d fell back to the input text", i)
		}
	}
	if resp.PromptData[0].Style != "Bold" {
		t.Errorf("style = %q", resp.PromptData[0].Style)
	}
	if len(resp.FunctionCalls) != 1 || resp.FunctionCalls[0].Args["duration"] != "6s" {
		t.Errorf("function_calls = %+v", resp.FunctionCalls)
	}

	if len(gen.calls) != 2 {
		t.Fatalf("model calls = %d, want 2", len(gen.calls))
	}
	follow := gen.calls[1]
	if len(follow.Tools) != 0 {
		t.Errorf("follow-up declared tools")
	}
	if !strings.Contains(follow.User, "Recommended duration: 6s") {
		t.Errorf("follow-up message = %q", follow.User)
	}
}

func TestGeneratePromptPlainHasNoTools(t *testing.T) {
	gen := &fakeGenerator{result: &gemini.Result{Text: "no styles here"}}

	rec := doJSON(t, newTestRouter(gen), "/generate-prompt",
		`{"text":"https://cdn.example.com/shoe.jpg","feature_type":"image","aspect_ratio":"16:9"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(gen.calls[0].Tools) != 0 {
		t.Errorf("plain endpoint declared tools")
	}

	var resp GenerateResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.AspectRatio != "" {
		t.Errorf("plain endpoint echoed aspect ratio %q", resp.AspectRatio)
	}
	if resp.PromptData[0].Style != DefaultStyle || resp.PromptData[0].Prompt != "https://cdn.example.com/shoe.jpg" {
		t.Errorf("fallback prompt = %+v", resp.PromptData[0])
	}
}

func TestGeneratePromptModelError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}

	rec := doJSON(t, newTestRouter(gen), "/generate-prompt", `{"text":"Acme","feature_type":"video"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if !strings.Contains(body["error"], "quota exceeded") {
		t.Errorf("error = %q", body["error"])
	}
}

func TestDetectStyle(t *testing.T) {
	gen := &fakeGenerator{result: &gemini.Result{Text: "  moody neon cinematic  "}}

	rec := doJSON(t, newTestRouter(gen), "/detect-style", `{"text":"night city run","feature_type":"video"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp DetectStyleResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Style != "moody neon cinematic" {
		t.Errorf("style = %q", resp.Style)
	}
	if !strings.Contains(gen.calls[0].System, "cinematic style") {
		t.Errorf("video instruction not used")
	}
}

func TestDetectStyleEmptyResult(t *testing.T) {
	gen := &fakeGenerator{result: &gemini.Result{Text: "   "}}

	rec := doJSON(t, newTestRouter(gen), "/detect-style", `{"text":"x","feature_type":"image"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
