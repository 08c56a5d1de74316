package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"brandreel-server/modules/client"
)

func newTestController(t *testing.T, out *bytes.Buffer) (*client.Controller, *terminalView) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-prompt-2" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prompt_data":[{"style":"Bold","prompt":"A sneaker on fire"},{"style":"Calm","prompt":"A sneaker at dawn"}]}`))
	}))
	t.Cleanup(srv.Close)

	opts := client.Options{BaseURL: srv.URL}
	view := newTerminalView(out)
	ctrl := client.NewController(view, client.ControllerDeps{
		Extractor: client.NewImageExtractor(opts),
		Prompts:   client.NewPromptClient(opts),
		Videos:    client.NewDispatcher(opts),
	})
	return ctrl, view
}

func TestRunSubmitAndSelect(t *testing.T) {
	var out bytes.Buffer
	ctrl, view := newTestController(t, &out)

	in := strings.NewReader("brand Acme Shoes\nsubmit\nselect 1\nselect 4\nquit\n")
	if err := run(context.Background(), ctrl, view, in); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Bold: A sneaker on fire",
		"[x] 1  Bold",
		"select 4: nothing changed",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if view.form.BrandInput != "Acme Shoes" {
		t.Errorf("brand = %q", view.form.BrandInput)
	}
}

func TestRunRejectsBlankBrand(t *testing.T) {
	var out bytes.Buffer
	ctrl, view := newTestController(t, &out)

	if err := run(context.Background(), ctrl, view, strings.NewReader("submit\n")); err == nil {
		t.Fatal("expected EOF at end of input")
	}
	if !strings.Contains(out.String(), "!! ") {
		t.Errorf("expected an alert, got:\n%s", out.String())
	}
}

func TestCardNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 0, true},
		{"4", 3, true},
		{"0", 0, false},
		{"x", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var out bytes.Buffer
			got, ok := cardNumber(newTerminalView(&out), tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("cardNumber(%q) = %d, %v", tt.in, got, ok)
			}
		})
	}
}
