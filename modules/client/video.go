package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"brandreel-server/modules/common/model"
)

// VideoRequest carries the selected prompt and the form values at dispatch time.
type VideoRequest struct {
	Prompt      string
	BrandInput  string
	AspectRatio string
	Duration    string
	ContentType string
}

// Dispatcher submits POST /generate_video and builds the results page redirect.
type Dispatcher struct {
	base
}

func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{base: newBase(opts)}
}

type videoResponse struct {
	VideoURL   string  `json:"video_url"`
	Prompt     *string `json:"prompt"`
	BrandInput *string `json:"brand_input"`
}

// RequestVideo returns "/video?video_url=..&prompt=..&brand=..". An empty
// prompt means nothing was selected and no request is made.
func (d *Dispatcher) RequestVideo(ctx context.Context, in VideoRequest) (string, error) {
	const op = "request video"

	if strings.TrimSpace(in.Prompt) == "" {
		return "", newError(KindNoSelection, op, ErrNoSelection)
	}
	if in.ContentType == "" {
		in.ContentType = model.ContentTypeCreativeScene
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range [][2]string{
		{"prompt", in.Prompt},
		{"brand_input", in.BrandInput},
		{"aspect_ratio", in.AspectRatio},
		{"duration", in.Duration},
		{"content_type", in.ContentType},
	} {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", newError(KindValidation, op, fmt.Errorf("failed to write form: %w", err))
		}
	}
	if err := mw.Close(); err != nil {
		return "", newError(KindValidation, op, fmt.Errorf("failed to write form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/generate_video", &buf)
	if err != nil {
		return "", newError(KindNetwork, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	d.log.Info("[Client] requesting video",
		zap.String("aspect_ratio", in.AspectRatio), zap.String("duration", in.Duration))

	var resp videoResponse
	if err := d.do(op, req, &resp); err != nil {
		d.log.Warn("[Client] video request failed", zap.Error(err))
		return "", err
	}
	if resp.VideoURL == "" || resp.Prompt == nil || resp.BrandInput == nil {
		err := newError(KindApplication, op, errors.New("video response is missing video_url, prompt or brand_input"))
		d.log.Warn("[Client] video request failed", zap.Error(err))
		return "", err
	}

	return ResultURL(resp.VideoURL, *resp.Prompt, *resp.BrandInput), nil
}

// ResultURL builds the results page location with every value query-escaped.
func ResultURL(videoURL, prompt, brand string) string {
	return "/video?video_url=" + url.QueryEscape(videoURL) +
		"&prompt=" + url.QueryEscape(prompt) +
		"&brand=" + url.QueryEscape(brand)
}
