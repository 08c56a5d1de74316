package client

import (
	"context"
	"sync"

	"brandreel-server/modules/common/model"
)

type fakeView struct {
	mu        sync.Mutex
	form      FormParameters
	renders   []RenderModel
	alerts    []string
	enabled   []bool
	navigated []string
}

func (v *fakeView) Form() FormParameters {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

func (v *fakeView) setForm(f FormParameters) {
	v.mu.Lock()
	v.form = f
	v.mu.Unlock()
}

func (v *fakeView) Render(m RenderModel) {
	v.mu.Lock()
	v.renders = append(v.renders, m)
	v.mu.Unlock()
}

func (v *fakeView) SetSubmitEnabled(enabled bool) {
	v.mu.Lock()
	v.enabled = append(v.enabled, enabled)
	v.mu.Unlock()
}

func (v *fakeView) Alert(message string) {
	v.mu.Lock()
	v.alerts = append(v.alerts, message)
	v.mu.Unlock()
}

func (v *fakeView) Navigate(location string) {
	v.mu.Lock()
	v.navigated = append(v.navigated, location)
	v.mu.Unlock()
}

func (v *fakeView) alertCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.alerts)
}

func (v *fakeView) submitEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.enabled) == 0 {
		return true
	}
	return v.enabled[len(v.enabled)-1]
}

// fakePrompts blocks on release when it is set, after signalling started.
type fakePrompts struct {
	mu      sync.Mutex
	reqs    []PromptRequest
	items   []model.PromptItem
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakePrompts) GeneratePrompts(ctx context.Context, req PromptRequest) ([]model.PromptItem, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	started, release := f.started, f.release
	items, err := f.items, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return items, err
}

func (f *fakePrompts) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeExtractor struct {
	images []string
	err    error
	urls   []string
}

func (f *fakeExtractor) ExtractImagesFromURL(ctx context.Context, pageURL string) ([]string, error) {
	f.urls = append(f.urls, pageURL)
	return f.images, f.err
}

// fakeVideos blocks on release when it is set, after signalling started.
type fakeVideos struct {
	location string
	err      error
	reqs     []VideoRequest
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeVideos) RequestVideo(ctx context.Context, req VideoRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.location, f.err
}

func promptItems(n int) []model.PromptItem {
	out := make([]model.PromptItem, n)
	for i := range out {
		out[i] = model.PromptItem{Style: "Style", Prompt: "prompt " + string(rune('A'+i))}
	}
	return out
}
