package cancel

import (
	"context"

	"go.uber.org/zap"

	"brandreel-server/modules/common/model"
)

// StatusUpdater - cancel flag lookup plus job status persistence
type StatusUpdater interface {
	IsJobCancelled(ctx context.Context, jobID string) bool
	UpdateJobStatus(ctx context.Context, job *model.VideoJob) error
}

// CheckBeforeGeneration - 생성 요청 전 취소 체크
// Marks the job user_cancelled and returns true when the cancel flag is set.
func CheckBeforeGeneration(ctx context.Context, service StatusUpdater, job *model.VideoJob) bool {
	if !service.IsJobCancelled(ctx, job.JobID) {
		return false
	}

	zap.L().Info("[Cancel] job cancelled before generation", zap.String("job_id", job.JobID))
	markCancelled(ctx, service, job)
	return true
}

// CheckAfterGeneration - 생성 완료 후 저장 전 취소 체크
// The generated video URL is discarded when the job was cancelled meanwhile.
func CheckAfterGeneration(ctx context.Context, service StatusUpdater, job *model.VideoJob, videoURL string) bool {
	if !service.IsJobCancelled(ctx, job.JobID) {
		return false
	}

	zap.L().Info("[Cancel] job cancelled after generation, discarding result",
		zap.String("job_id", job.JobID), zap.String("video_url", videoURL))
	markCancelled(ctx, service, job)
	return true
}

func markCancelled(ctx context.Context, service StatusUpdater, job *model.VideoJob) {
	job.Status = model.StatusUserCancelled
	job.VideoURL = ""
	if err := service.UpdateJobStatus(ctx, job); err != nil {
		zap.L().Warn("[Cancel] failed to persist cancelled status",
			zap.String("job_id", job.JobID), zap.Error(err))
	}
}
