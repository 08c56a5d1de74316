package extract

import "errors"

// ExtractRequest - POST /extract-images
type ExtractRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ExtractResponse carries the list under both names older front ends read.
type ExtractResponse struct {
	Images        []string `json:"images"`
	ProductImages []string `json:"product_images"`
}

var (
	ErrUpstream = errors.New("failed to fetch page")
	ErrNoImages = errors.New("no images found")
)

const (
	pageSizeLimit   = 5 << 20
	probeConcurrent = 4
)
