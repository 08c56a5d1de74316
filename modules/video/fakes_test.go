package video

import (
	"context"
	"errors"
	"sync"
	"time"

	"brandreel-server/modules/common/config"
	"brandreel-server/modules/common/model"
)

type fakeGenerator struct {
	mu        sync.Mutex
	videoURL  string
	requestID string
	err       error
	inputs    []GenerateInput
	cancelled []string
	hook      func() // runs inside Generate
}

func (f *fakeGenerator) Generate(_ context.Context, in GenerateInput, onUpdate func(QueueStatus)) (*GenerateOutput, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()

	if onUpdate != nil {
		onUpdate(QueueStatus{RequestID: f.requestID, Status: FalInProgress, Logs: []QueueLog{{Message: "rendering"}}})
	}
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &GenerateOutput{VideoURL: f.videoURL, RequestID: f.requestID}, nil
}

func (f *fakeGenerator) Status(_ context.Context, requestID string) (*QueueStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &QueueStatus{RequestID: requestID, Status: FalInQueue, QueuePosition: 2}, nil
}

func (f *fakeGenerator) Cancel(_ context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, requestID)
	return nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type fakeStore struct {
	mu      sync.Mutex
	jobs    map[string]model.VideoJob
	updates []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: map[string]model.VideoJob{}}
}

func (f *fakeStore) CreateVideoJob(_ context.Context, job *model.VideoJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.JobID] = *job
	return nil
}

func (f *fakeStore) UpdateVideoJob(_ context.Context, job *model.VideoJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.JobID] = *job
	f.updates = append(f.updates, job.Status)
	return nil
}

func (f *fakeStore) FetchVideoJob(_ context.Context, jobID string) (*model.VideoJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &job, nil
}

type fakeQueue struct {
	mu         sync.Mutex
	ids        chan string
	jobs       map[string]model.VideoJob
	cancelled  map[string]bool
	enqueueErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		ids:       make(chan string, 16),
		jobs:      map[string]model.VideoJob{},
		cancelled: map[string]bool{},
	}
}

func (f *fakeQueue) Enqueue(_ context.Context, jobID string) (int64, error) {
	if f.enqueueErr != nil {
		return 0, f.enqueueErr
	}
	f.ids <- jobID
	return int64(len(f.ids)), nil
}

func (f *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case id := <-f.ids:
		return id, nil
	case <-time.After(timeout):
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fakeQueue) SaveJob(_ context.Context, job *model.VideoJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.JobID] = *job
	return nil
}

func (f *fakeQueue) GetJob(_ context.Context, jobID string) (*model.VideoJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (f *fakeQueue) SetJobCancelled(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled[jobID] = true
	return nil
}

func (f *fakeQueue) IsJobCancelled(_ context.Context, jobID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled[jobID]
}

func (f *fakeQueue) job(jobID string) model.VideoJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[jobID]
}

type fakeProber struct {
	status int
	err    error
	urls   []string
}

func (f *fakeProber) Probe(_ context.Context, rawURL string) (int, error) {
	f.urls = append(f.urls, rawURL)
	return f.status, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []JobEvent
}

func (f *fakePublisher) Publish(topic string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := payload.(JobEvent); ok && ev.JobID == topic {
		f.events = append(f.events, ev)
	}
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

func videoConfig() *config.Config {
	return &config.Config{DefaultRatio: "9:16", DefaultLength: "8s"}
}
