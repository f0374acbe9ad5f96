package ports

import (
	"context"
	"time"

	"phishdetect/internal/domain"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobInput is the artifact submitted with an asynchronous analysis.
type JobInput struct {
	Content    string `json:"content,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	SyscallLog string `json:"syscallLog,omitempty"`
}

type AnalysisJob struct {
	ID         string          `json:"id"`
	Type       domain.ScanType `json:"type"`
	Input      JobInput        `json:"-"`
	Status     JobStatus       `json:"status"`
	ScanID     string          `json:"scanId,omitempty"`
	Error      string          `json:"error,omitempty"`
	QueuedAt   time.Time       `json:"queuedAt"`
	StartedAt  *time.Time      `json:"startedAt,omitempty"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

// JobRepository supports queueing, claiming and updating analysis jobs.
type JobRepository interface {
	Enqueue(ctx context.Context, t domain.ScanType, in JobInput) (jobID string, err error)
	ClaimNext(ctx context.Context) (job AnalysisJob, found bool, err error)
	// EnqueueRunning records a job that is already running. It is never
	// handed out by ClaimNext.
	EnqueueRunning(ctx context.Context, t domain.ScanType, in JobInput) (AnalysisJob, error)
	MarkCompleted(ctx context.Context, jobID, scanID string) error
	MarkFailed(ctx context.Context, jobID, reason string) error
	Get(ctx context.Context, jobID string) (AnalysisJob, error)
}
