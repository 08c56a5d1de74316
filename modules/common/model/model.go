package model

import "time"

// VideoJob - brand_video_jobs table row
type VideoJob struct {
	JobID        string     `json:"job_id"`
	RequestID    string     `json:"request_id,omitempty"` // fal.ai queue request id
	Prompt       string     `json:"prompt"`
	BrandInput   string     `json:"brand_input"`
	AspectRatio  string     `json:"aspect_ratio"`
	Duration     string     `json:"duration"`
	ContentType  string     `json:"content_type,omitempty"`
	Status       string     `json:"status"`
	VideoURL     string     `json:"video_url,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether no further processing will happen for the job.
func (j *VideoJob) Terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusUserCancelled:
		return true
	}
	return false
}

// PromptItem - one styled prompt returned by the prompt endpoints
type PromptItem struct {
	Style  string `json:"style"`
	Prompt string `json:"prompt"`
}

// FunctionCall - informational tool call echoed by /generate-prompt-2
type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

const (
	StatusPending       = "pending"
	StatusProcessing    = "processing"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
	StatusUserCancelled = "user_cancelled"
)

// Feature types accepted by the prompt endpoints.
const (
	FeatureImage = "image"
	FeatureVideo = "video"
)

// ContentTypeCreativeScene is what the brand form sends as content_type.
const ContentTypeCreativeScene = "creative-scene"

// PromptSlots is the number of prompt cards the UI always shows.
const PromptSlots = 4

// AspectRatios and Durations supported by the video model.
var (
	AspectRatios = []string{"16:9", "9:16"}
	Durations    = []string{"5s", "6s", "7s", "8s"}
)

// IsAspectRatio reports whether v is a supported aspect ratio.
func IsAspectRatio(v string) bool {
	return contains(AspectRatios, v)
}

// IsDuration reports whether v is a supported duration.
func IsDuration(v string) bool {
	return contains(Durations, v)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
