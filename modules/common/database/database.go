package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"brandreel-server/modules/common/config"
	"brandreel-server/modules/common/model"
)

const videoJobsTable = "brand_video_jobs"

type Client struct {
	supabase *supabase.Client
}

// NewClient returns nil when Supabase is not configured or the client cannot be built.
func NewClient(cfg *config.Config) *Client {
	if !cfg.SupabaseEnabled() {
		zap.L().Info("[Database] Supabase not configured, job persistence disabled")
		return nil
	}

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		zap.L().Error("[Database] failed to create Supabase client", zap.Error(err))
		return nil
	}

	return &Client{supabase: supabaseClient}
}

// CreateVideoJob inserts a new job row.
func (c *Client) CreateVideoJob(ctx context.Context, job *model.VideoJob) error {
	insertData := map[string]interface{}{
		"job_id":       job.JobID,
		"prompt":       job.Prompt,
		"brand_input":  job.BrandInput,
		"aspect_ratio": job.AspectRatio,
		"duration":     job.Duration,
		"content_type": job.ContentType,
		"status":       job.Status,
		"created_at":   job.CreatedAt.Format(time.RFC3339),
		"updated_at":   job.UpdatedAt.Format(time.RFC3339),
	}

	_, _, err := c.supabase.From(videoJobsTable).
		Insert(insertData, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert video job: %w", err)
	}

	zap.L().Info("[Database] video job created", zap.String("job_id", job.JobID))
	return nil
}

// UpdateVideoJob writes the mutable fields of job.
func (c *Client) UpdateVideoJob(ctx context.Context, job *model.VideoJob) error {
	updateData := map[string]interface{}{
		"status":     job.Status,
		"request_id": job.RequestID,
		"video_url":  job.VideoURL,
		"updated_at": job.UpdatedAt.Format(time.RFC3339),
	}
	if job.ErrorMessage != "" {
		updateData["error_message"] = job.ErrorMessage
	}
	if job.CompletedAt != nil {
		updateData["completed_at"] = job.CompletedAt.Format(time.RFC3339)
	}

	_, _, err := c.supabase.From(videoJobsTable).
		Update(updateData, "", "").
		Eq("job_id", job.JobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update video job: %w", err)
	}

	zap.L().Info("[Database] video job updated", zap.String("job_id", job.JobID), zap.String("status", job.Status))
	return nil
}

// FetchVideoJob loads a job row by id.
func (c *Client) FetchVideoJob(ctx context.Context, jobID string) (*model.VideoJob, error) {
	data, _, err := c.supabase.From(videoJobsTable).
		Select("*", "exact", false).
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query Supabase: %w", err)
	}

	var jobs []model.VideoJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	return &jobs[0], nil
}
