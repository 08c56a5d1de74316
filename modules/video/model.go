package video

import "brandreel-server/modules/common/model"

// GenerateInput - fal.ai model arguments
type GenerateInput struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Duration    string `json:"duration"`
}

// GenerateOutput - finished generation
type GenerateOutput struct {
	VideoURL  string
	RequestID string
}

// QueueStatus - fal.ai queue status (GET .../status?logs=1)
type QueueStatus struct {
	RequestID     string     `json:"request_id,omitempty"`
	Status        string     `json:"status"`
	QueuePosition int        `json:"queue_position,omitempty"`
	Logs          []QueueLog `json:"logs,omitempty"`
}

type QueueLog struct {
	Message   string `json:"message"`
	Level     string `json:"level,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type falSubmitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

func (s *falSubmitResponse) statusEndpoint(c *FalClient) string {
	if s.StatusURL != "" {
		return s.StatusURL
	}
	return c.requestURL(s.RequestID) + "/status"
}

func (s *falSubmitResponse) responseEndpoint(c *FalClient) string {
	if s.ResponseURL != "" {
		return s.ResponseURL
	}
	return c.requestURL(s.RequestID)
}

type falResult struct {
	Video struct {
		URL string `json:"url"`
	} `json:"video"`
}

// GenerateVideoForm - POST /generate_video (multipart)
type GenerateVideoForm struct {
	Prompt      string `validate:"required"`
	BrandInput  string
	AspectRatio string `validate:"oneof=16:9 9:16"`
	Duration    string `validate:"oneof=5s 6s 7s 8s"`
	ContentType string
}

// GenerateVideoResponse - what the dispatcher needs for the redirect
type GenerateVideoResponse struct {
	VideoURL   string `json:"video_url"`
	Prompt     string `json:"prompt"`
	BrandInput string `json:"brand_input"`
	JobID      string `json:"job_id"`
	RequestID  string `json:"request_id,omitempty"`
}

// CheckStatusResponse - GET /check_status/{request_id}
type CheckStatusResponse struct {
	Status    *QueueStatus `json:"status"`
	Timestamp float64      `json:"timestamp"`
}

// EnqueueRequest - POST /api/video/jobs
type EnqueueRequest struct {
	Prompt      string `json:"prompt" validate:"required"`
	BrandInput  string `json:"brand_input"`
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16"`
	Duration    string `json:"duration" validate:"omitempty,oneof=5s 6s 7s 8s"`
	ContentType string `json:"content_type"`
}

// EnqueueResponse - queued job
type EnqueueResponse struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	QueuePosition int64  `json:"queue_position"`
}

// CancelResponse - POST /api/video/jobs/{id}/cancel
type CancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
}

func newJobFromInput(in GenerateInput, brandInput, contentType string) *model.VideoJob {
	if contentType == "" {
		contentType = model.ContentTypeCreativeScene
	}
	return &model.VideoJob{
		Prompt:      in.Prompt,
		BrandInput:  brandInput,
		AspectRatio: in.AspectRatio,
		Duration:    in.Duration,
		ContentType: contentType,
		Status:      model.StatusPending,
	}
}
