package video

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dequeueTimeout = 5 * time.Second
	errorBackoff   = 5 * time.Second
)

// Worker - Redis Queue Worker
// Pops job ids with BRPOP and runs at most concurrency jobs at once.
type Worker struct {
	service     *Service
	queue       Queue
	concurrency int
	backoff     time.Duration
}

// NewWorker returns nil when the service has no queue.
func NewWorker(service *Service, concurrency int) *Worker {
	if service == nil || service.queue == nil {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		service:     service,
		queue:       service.queue,
		concurrency: concurrency,
		backoff:     errorBackoff,
	}
}

// Run blocks until ctx is cancelled and every running job has returned.
func (w *Worker) Run(ctx context.Context) error {
	zap.L().Info("[Worker] watching queue", zap.Int("concurrency", w.concurrency))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for gctx.Err() == nil {
		jobID, err := w.queue.Dequeue(gctx, dequeueTimeout)
		if err != nil {
			if gctx.Err() != nil {
				break
			}
			zap.L().Error("[Worker] dequeue failed", zap.Error(err))
			select {
			case <-gctx.Done():
			case <-time.After(w.backoff):
			}
			continue
		}
		if jobID == "" {
			continue
		}

		zap.L().Info("[Worker] received job", zap.String("job_id", jobID))

		// blocks while concurrency jobs are running
		g.Go(func() error {
			err := w.service.ProcessQueuedJob(gctx, jobID)
			switch {
			case err == nil:
			case errors.Is(err, ErrJobCancelled):
				zap.L().Info("[Worker] job cancelled", zap.String("job_id", jobID))
			default:
				zap.L().Error("[Worker] job failed", zap.String("job_id", jobID), zap.Error(err))
			}
			return nil
		})
	}

	err := g.Wait()
	zap.L().Info("[Worker] stopped")
	if err != nil {
		return err
	}
	return ctx.Err()
}
