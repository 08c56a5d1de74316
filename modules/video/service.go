package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"brandreel-server/modules/common/cancel"
	"brandreel-server/modules/common/config"
	"brandreel-server/modules/common/model"
	"brandreel-server/modules/common/utils"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobFinished      = errors.New("job already finished")
	ErrJobCancelled     = errors.New("job cancelled")
	ErrQueueUnavailable = errors.New("job queue unavailable")
)

// Generator is satisfied by *FalClient.
type Generator interface {
	Generate(ctx context.Context, in GenerateInput, onUpdate func(QueueStatus)) (*GenerateOutput, error)
	Status(ctx context.Context, requestID string) (*QueueStatus, error)
	Cancel(ctx context.Context, requestID string) error
}

// JobStore is satisfied by *database.Client (Supabase).
type JobStore interface {
	CreateVideoJob(ctx context.Context, job *model.VideoJob) error
	UpdateVideoJob(ctx context.Context, job *model.VideoJob) error
	FetchVideoJob(ctx context.Context, jobID string) (*model.VideoJob, error)
}

// Queue is satisfied by *redis.Store.
type Queue interface {
	Enqueue(ctx context.Context, jobID string) (int64, error)
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	SaveJob(ctx context.Context, job *model.VideoJob) error
	GetJob(ctx context.Context, jobID string) (*model.VideoJob, error)
	SetJobCancelled(ctx context.Context, jobID string) error
	IsJobCancelled(ctx context.Context, jobID string) bool
}

// Prober is satisfied by *storage.Client.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (int, error)
}

// Publisher is satisfied by *realtime.Hub.
type Publisher interface {
	Publish(topic string, payload interface{})
}

// Deps - Store, Queue, Prober and Publisher are optional; leave them nil
// rather than wrapping a nil pointer.
type Deps struct {
	Generator Generator
	Store     JobStore
	Queue     Queue
	Prober    Prober
	Publisher Publisher
}

// JobEvent is published to the job's realtime topic on every state change.
type JobEvent struct {
	Type          string `json:"type"`
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	QueueStatus   string `json:"queue_status,omitempty"`
	QueuePosition int    `json:"queue_position,omitempty"`
	Message       string `json:"message,omitempty"`
	VideoURL      string `json:"video_url,omitempty"`
}

type Service struct {
	gen             Generator
	store           JobStore
	queue           Queue
	prober          Prober
	publisher       Publisher
	defaultRatio    string
	defaultDuration string
	now             func() time.Time
}

func NewService(cfg *config.Config, deps Deps) *Service {
	return &Service{
		gen:             deps.Generator,
		store:           deps.Store,
		queue:           deps.Queue,
		prober:          deps.Prober,
		publisher:       deps.Publisher,
		defaultRatio:    cfg.DefaultRatio,
		defaultDuration: cfg.DefaultLength,
		now:             time.Now,
	}
}

// QueueEnabled reports whether async jobs can be accepted.
func (s *Service) QueueEnabled() bool {
	return s.queue != nil
}

// Generate runs a video job inline and returns once the video URL is known.
func (s *Service) Generate(ctx context.Context, form *GenerateVideoForm) (*GenerateVideoResponse, error) {
	in := GenerateInput{Prompt: form.Prompt, AspectRatio: form.AspectRatio, Duration: form.Duration}
	job := s.newJob(in, form.BrandInput, form.ContentType)
	s.createJob(ctx, job)

	zap.L().Info("[Video] generating",
		zap.String("job_id", job.JobID),
		zap.String("prompt", utils.TruncateString(in.Prompt, 50)),
		zap.String("aspect_ratio", in.AspectRatio),
		zap.String("duration", in.Duration))

	if err := s.runJob(ctx, job); err != nil {
		return nil, err
	}

	return &GenerateVideoResponse{
		VideoURL:   job.VideoURL,
		Prompt:     job.Prompt,
		BrandInput: job.BrandInput,
		JobID:      job.JobID,
		RequestID:  job.RequestID,
	}, nil
}

// Enqueue stores a pending job and pushes it onto the Redis queue.
func (s *Service) Enqueue(ctx context.Context, req *EnqueueRequest) (*EnqueueResponse, error) {
	if s.queue == nil {
		return nil, ErrQueueUnavailable
	}

	in := GenerateInput{
		Prompt:      req.Prompt,
		AspectRatio: orDefault(req.AspectRatio, s.defaultRatio),
		Duration:    orDefault(req.Duration, s.defaultDuration),
	}
	job := s.newJob(in, req.BrandInput, req.ContentType)
	s.createJob(ctx, job)

	position, err := s.queue.Enqueue(ctx, job.JobID)
	if err != nil {
		job.Status = model.StatusFailed
		job.ErrorMessage = err.Error()
		s.updateJob(ctx, job)
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	zap.L().Info("[Video] job enqueued", zap.String("job_id", job.JobID), zap.Int64("position", position))
	s.publish(job, "queued", "", 0, "")

	return &EnqueueResponse{JobID: job.JobID, Status: job.Status, QueuePosition: position}, nil
}

// GetJob reads the Redis copy first and falls back to Supabase.
func (s *Service) GetJob(ctx context.Context, jobID string) (*model.VideoJob, error) {
	if s.queue != nil {
		job, err := s.queue.GetJob(ctx, jobID)
		if err != nil {
			zap.L().Warn("[Video] redis job lookup failed", zap.String("job_id", jobID), zap.Error(err))
		}
		if job != nil {
			return job, nil
		}
	}
	if s.store != nil {
		job, err := s.store.FetchVideoJob(ctx, jobID)
		if err == nil {
			return job, nil
		}
		zap.L().Debug("[Video] supabase job lookup failed", zap.String("job_id", jobID), zap.Error(err))
	}
	return nil, ErrJobNotFound
}

// CancelJob raises the cancel flag; the worker stops the job before or after generation.
func (s *Service) CancelJob(ctx context.Context, jobID string) (*model.VideoJob, error) {
	if s.queue == nil {
		return nil, ErrQueueUnavailable
	}

	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Terminal() {
		return job, ErrJobFinished
	}

	if err := s.queue.SetJobCancelled(ctx, jobID); err != nil {
		return nil, err
	}

	if job.RequestID != "" && s.gen != nil {
		if err := s.gen.Cancel(ctx, job.RequestID); err != nil {
			zap.L().Warn("[Video] fal cancel failed", zap.String("request_id", job.RequestID), zap.Error(err))
		}
	}

	zap.L().Info("[Video] cancel requested", zap.String("job_id", jobID), zap.String("status", job.Status))
	return job, nil
}

// ProcessQueuedJob is called by the worker for every dequeued id.
func (s *Service) ProcessQueuedJob(ctx context.Context, jobID string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.Terminal() {
		zap.L().Info("[Video] skipping finished job", zap.String("job_id", jobID), zap.String("status", job.Status))
		return nil
	}
	return s.runJob(ctx, job)
}

// CheckStatus proxies the fal.ai queue status.
func (s *Service) CheckStatus(ctx context.Context, requestID string) (*QueueStatus, error) {
	return s.gen.Status(ctx, requestID)
}

func (s *Service) runJob(ctx context.Context, job *model.VideoJob) error {
	if cancel.CheckBeforeGeneration(ctx, s, job) {
		s.publish(job, "cancelled", "", 0, "")
		return ErrJobCancelled
	}

	job.Status = model.StatusProcessing
	s.updateJob(ctx, job)
	s.publish(job, "started", "", 0, "")

	in := GenerateInput{Prompt: job.Prompt, AspectRatio: job.AspectRatio, Duration: job.Duration}
	out, err := s.gen.Generate(ctx, in, func(st QueueStatus) {
		if st.RequestID != "" && job.RequestID == "" {
			job.RequestID = st.RequestID
			s.updateJob(ctx, job)
		}
		msg := ""
		if n := len(st.Logs); n > 0 {
			msg = st.Logs[n-1].Message
		}
		s.publish(job, "progress", st.Status, st.QueuePosition, msg)
	})
	if err != nil {
		zap.L().Error("[Video] generation failed", zap.String("job_id", job.JobID), zap.Error(err))
		job.Status = model.StatusFailed
		job.ErrorMessage = err.Error()
		s.updateJob(ctx, job)
		s.publish(job, "failed", "", 0, job.ErrorMessage)
		return fmt.Errorf("video generation failed: %w", err)
	}
	if job.RequestID == "" {
		job.RequestID = out.RequestID
	}

	if cancel.CheckAfterGeneration(ctx, s, job, out.VideoURL) {
		s.publish(job, "cancelled", "", 0, "")
		return ErrJobCancelled
	}

	s.probeVideo(ctx, out.VideoURL)

	job.Status = model.StatusCompleted
	job.VideoURL = out.VideoURL
	s.updateJob(ctx, job)
	s.publish(job, "completed", FalCompleted, 0, "")

	zap.L().Info("[Video] job completed", zap.String("job_id", job.JobID), zap.String("video_url", job.VideoURL))
	return nil
}

// IsJobCancelled - cancel.StatusUpdater
func (s *Service) IsJobCancelled(ctx context.Context, jobID string) bool {
	if s.queue == nil {
		return false
	}
	return s.queue.IsJobCancelled(ctx, jobID)
}

// UpdateJobStatus - cancel.StatusUpdater
func (s *Service) UpdateJobStatus(ctx context.Context, job *model.VideoJob) error {
	return s.updateJob(ctx, job)
}

func (s *Service) newJob(in GenerateInput, brandInput, contentType string) *model.VideoJob {
	job := newJobFromInput(in, brandInput, contentType)
	job.JobID = uuid.New().String()
	job.CreatedAt = s.now()
	job.UpdatedAt = job.CreatedAt
	return job
}

func (s *Service) createJob(ctx context.Context, job *model.VideoJob) {
	if s.store != nil {
		if err := s.store.CreateVideoJob(ctx, job); err != nil {
			zap.L().Warn("[Video] failed to persist job", zap.String("job_id", job.JobID), zap.Error(err))
		}
	}
	if s.queue != nil {
		if err := s.queue.SaveJob(ctx, job); err != nil {
			zap.L().Warn("[Video] failed to cache job", zap.String("job_id", job.JobID), zap.Error(err))
		}
	}
}

// updateJob writes both copies; only the Supabase error is returned.
func (s *Service) updateJob(ctx context.Context, job *model.VideoJob) error {
	job.UpdatedAt = s.now()
	if job.Terminal() && job.CompletedAt == nil {
		t := job.UpdatedAt
		job.CompletedAt = &t
	}

	if s.queue != nil {
		if err := s.queue.SaveJob(ctx, job); err != nil {
			zap.L().Warn("[Video] failed to cache job", zap.String("job_id", job.JobID), zap.Error(err))
		}
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.UpdateVideoJob(ctx, job); err != nil {
		zap.L().Warn("[Video] failed to update job", zap.String("job_id", job.JobID), zap.Error(err))
		return err
	}
	return nil
}

// probeVideo only warns; fal CDN URLs sometimes reject HEAD right after upload.
func (s *Service) probeVideo(ctx context.Context, videoURL string) {
	if s.prober == nil {
		return
	}
	probeCtx, stop := context.WithTimeout(ctx, 10*time.Second)
	defer stop()

	status, err := s.prober.Probe(probeCtx, videoURL)
	switch {
	case err != nil:
		zap.L().Warn("[Video] video url probe failed", zap.String("url", videoURL), zap.Error(err))
	case status != http.StatusOK:
		zap.L().Warn("[Video] video url not reachable", zap.String("url", videoURL), zap.Int("status", status))
	default:
		zap.L().Debug("[Video] video url reachable", zap.String("url", videoURL))
	}
}

func (s *Service) publish(job *model.VideoJob, eventType, queueStatus string, position int, message string) {
	if s.publisher == nil {
		return
	}
	ev := JobEvent{
		Type:          eventType,
		JobID:         job.JobID,
		Status:        job.Status,
		QueueStatus:   queueStatus,
		QueuePosition: position,
		Message:       message,
		VideoURL:      job.VideoURL,
	}
	s.publisher.Publish(job.JobID, ev)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
