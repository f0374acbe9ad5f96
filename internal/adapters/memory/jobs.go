package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
)

// Jobs is a JobRepository held in process memory. Jobs are claimed in the
// order they were queued.
type Jobs struct {
	mu    sync.Mutex
	jobs  map[string]*ports.AnalysisJob
	queue []string
	now   func() time.Time
}

var _ ports.JobRepository = (*Jobs)(nil)

func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[string]*ports.AnalysisJob), now: time.Now}
}

func (j *Jobs) Enqueue(_ context.Context, t domain.ScanType, in ports.JobInput) (string, error) {
	id := uuid.NewString()
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[id] = &ports.AnalysisJob{
		ID:       id,
		Type:     t,
		Input:    in,
		Status:   ports.JobQueued,
		QueuedAt: j.now().UTC(),
	}
	j.queue = append(j.queue, id)
	return id, nil
}

func (j *Jobs) ClaimNext(_ context.Context) (ports.AnalysisJob, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for len(j.queue) > 0 {
		id := j.queue[0]
		j.queue = j.queue[1:]
		job := j.jobs[id]
		if job == nil || job.Status != ports.JobQueued {
			continue
		}
		j.markRunning(job)
		return *job, true, nil
	}
	return ports.AnalysisJob{}, false, nil
}

func (j *Jobs) EnqueueRunning(_ context.Context, t domain.ScanType, in ports.JobInput) (ports.AnalysisJob, error) {
	job := &ports.AnalysisJob{
		ID:       uuid.NewString(),
		Type:     t,
		Input:    in,
		QueuedAt: j.now().UTC(),
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.markRunning(job)
	j.jobs[job.ID] = job
	return *job, nil
}

func (j *Jobs) markRunning(job *ports.AnalysisJob) {
	now := j.now().UTC()
	job.Status = ports.JobRunning
	job.StartedAt = &now
}

func (j *Jobs) MarkCompleted(_ context.Context, jobID, scanID string) error {
	return j.finish("memory.Jobs.MarkCompleted", jobID, func(job *ports.AnalysisJob) {
		job.Status = ports.JobCompleted
		job.ScanID = scanID
	})
}

func (j *Jobs) MarkFailed(_ context.Context, jobID, reason string) error {
	return j.finish("memory.Jobs.MarkFailed", jobID, func(job *ports.AnalysisJob) {
		job.Status = ports.JobFailed
		job.Error = reason
	})
}

func (j *Jobs) finish(op, jobID string, apply func(*ports.AnalysisJob)) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[jobID]
	if !ok {
		return errs.E(errs.KindNotFound, op, "job "+jobID)
	}
	now := j.now().UTC()
	apply(job)
	job.FinishedAt = &now
	return nil
}

func (j *Jobs) Get(_ context.Context, jobID string) (ports.AnalysisJob, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[jobID]
	if !ok {
		return ports.AnalysisJob{}, errs.E(errs.KindNotFound, "memory.Jobs.Get", "job "+jobID)
	}
	return *job, nil
}
