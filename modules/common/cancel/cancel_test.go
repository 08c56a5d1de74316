package cancel

import (
	"context"
	"errors"
	"testing"

	"brandreel-server/modules/common/model"
)

type fakeUpdater struct {
	cancelled map[string]bool
	updated   []string
	err       error
}

func (f *fakeUpdater) IsJobCancelled(_ context.Context, jobID string) bool {
	return f.cancelled[jobID]
}

func (f *fakeUpdater) UpdateJobStatus(_ context.Context, job *model.VideoJob) error {
	f.updated = append(f.updated, job.Status)
	return f.err
}

func TestCheckBeforeGeneration(t *testing.T) {
	tests := []struct {
		name      string
		cancelled bool
		err       error
		want      bool
	}{
		{name: "not cancelled", cancelled: false, want: false},
		{name: "cancelled", cancelled: true, want: true},
		{name: "cancelled, persist fails", cancelled: true, err: errors.New("db down"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeUpdater{cancelled: map[string]bool{"job-1": tt.cancelled}, err: tt.err}
			job := &model.VideoJob{JobID: "job-1", Status: model.StatusProcessing}

			if got := CheckBeforeGeneration(context.Background(), f, job); got != tt.want {
				t.Fatalf("CheckBeforeGeneration() = %v, want %v", got, tt.want)
			}
			if tt.want {
				if job.Status != model.StatusUserCancelled {
					t.Errorf("status = %q, want %q", job.Status, model.StatusUserCancelled)
				}
				if len(f.updated) != 1 {
					t.Errorf("updates = %v, want one", f.updated)
				}
			} else if len(f.updated) != 0 {
				t.Errorf("unexpected updates %v", f.updated)
			}
		})
	}
}

func TestCheckAfterGenerationDiscardsURL(t *testing.T) {
	f := &fakeUpdater{cancelled: map[string]bool{"job-2": true}}
	job := &model.VideoJob{JobID: "job-2", Status: model.StatusProcessing, VideoURL: "https://cdn/x.mp4"}

	if !CheckAfterGeneration(context.Background(), f, job, "https://cdn/x.mp4") {
		t.Fatalf("expected cancellation")
	}
	if job.VideoURL != "" {
		t.Errorf("VideoURL = %q, want empty", job.VideoURL)
	}
}
