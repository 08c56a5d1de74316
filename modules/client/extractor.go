package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ImageExtractor turns a product page URL into image URLs via POST /extract-images.
type ImageExtractor struct {
	base
}

func NewImageExtractor(opts Options) *ImageExtractor {
	return &ImageExtractor{base: newBase(opts)}
}

type extractResponse struct {
	Images        []string `json:"images"`
	ProductImages []string `json:"product_images"`
}

// ExtractImagesFromURL makes exactly one request. Only emptiness of pageURL
// is checked locally. An empty list and the server's 404 "no images found"
// both yield ErrNoImagesFound.
func (e *ImageExtractor) ExtractImagesFromURL(ctx context.Context, pageURL string) ([]string, error) {
	const op = "extract images"

	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, newError(KindValidation, op, ErrValidation)
	}

	var resp extractResponse
	if err := e.postJSON(ctx, op, "/extract-images", map[string]string{"url": pageURL}, &resp); err != nil {
		var ce *Error
		if errors.As(err, &ce) && ce.Status == http.StatusNotFound && ce.Err.Error() == ErrNoImagesFound.Error() {
			e.log.Warn("[Client] no images found", zap.String("url", pageURL))
			return nil, newError(KindEmptyResult, op, ErrNoImagesFound)
		}
		if errors.As(err, &ce) && ce.Status != 0 {
			ce.Err = fmt.Errorf("%w: %v", ErrExtractionFailed, ce.Err)
		}
		e.log.Warn("[Client] image extraction failed", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	images := resp.ProductImages
	if len(images) == 0 {
		images = resp.Images
	}
	if len(images) == 0 {
		e.log.Warn("[Client] no images found", zap.String("url", pageURL))
		return nil, newError(KindEmptyResult, op, ErrNoImagesFound)
	}

	e.log.Info("[Client] images extracted", zap.String("url", pageURL), zap.Int("count", len(images)))
	return images, nil
}
