// Package analysisrunner processes queued analysis jobs with a bounded pool
// of workers.
package analysisrunner

import (
	"context"
	"log/slog"
	"time"

	"phishdetect/internal/domain"
	"phishdetect/internal/metrics"
	"phishdetect/internal/ports"
)

// Processor performs the analysis for one job and returns the recorded scan.
type Processor interface {
	Analyze(ctx context.Context, t domain.ScanType, in ports.JobInput) (domain.ScanResult, error)
}

type Runner struct {
	Repo      ports.JobRepository
	Processor Processor
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Submit queues an analysis and returns the job id.
func (r *Runner) Submit(ctx context.Context, t domain.ScanType, in ports.JobInput) (string, error) {
	id, err := r.Repo.Enqueue(ctx, t, in)
	if err != nil {
		return "", err
	}
	r.logger().Debug("analysis job queued", "job", id, "type", t)
	return id, nil
}

// Run starts the dispatcher and concurrency workers. It returns immediately;
// the goroutines stop when ctx is done.
func (r *Runner) Run(ctx context.Context, concurrency int, pollInterval time.Duration) {
	if concurrency < 1 {
		return
	}
	jobsCh := make(chan ports.AnalysisJob, concurrency)

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		defer close(jobsCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for {
					job, found, err := r.Repo.ClaimNext(ctx)
					if err != nil {
						r.logger().Error("job claim failed", "err", err)
						break
					}
					if !found {
						break
					}
					select {
					case jobsCh <- job:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for job := range jobsCh {
				if err := r.process(ctx, job); err != nil {
					r.logger().Warn("analysis job failed", "worker", idx, "job", job.ID, "err", err)
				}
			}
		}(i)
	}
}

// RunInline records a running job and processes it synchronously with the
// same logic as the background workers. The job is never visible to them.
func (r *Runner) RunInline(ctx context.Context, t domain.ScanType, in ports.JobInput) (ports.AnalysisJob, error) {
	job, err := r.Repo.EnqueueRunning(ctx, t, in)
	if err != nil {
		return ports.AnalysisJob{}, err
	}
	procErr := r.process(ctx, job)
	done, err := r.Repo.Get(context.WithoutCancel(ctx), job.ID)
	if err != nil {
		return ports.AnalysisJob{}, err
	}
	return done, procErr
}

func (r *Runner) process(ctx context.Context, job ports.AnalysisJob) error {
	scan, err := r.Processor.Analyze(ctx, job.Type, job.Input)
	if err != nil {
		r.Metrics.JobFinished(string(ports.JobFailed))
		if markErr := r.Repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			r.logger().Error("mark job failed", "job", job.ID, "err", markErr)
		}
		return err
	}
	r.Metrics.JobFinished(string(ports.JobCompleted))
	return r.Repo.MarkCompleted(ctx, job.ID, scan.ID)
}
