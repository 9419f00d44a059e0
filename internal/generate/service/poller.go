package service

import (
	"context"
	"time"

	galleryservice "github.com/YRUSONOZ/stable-ui/internal/gallery/service"
	"github.com/YRUSONOZ/stable-ui/internal/generate/domain"
	"github.com/YRUSONOZ/stable-ui/internal/generate/repository"
	"github.com/YRUSONOZ/stable-ui/internal/horde"
)

// Poller drives the fixed-interval status loop for pending jobs. Jobs are
// polled sequentially inside a tick, so ticks never overlap.
type Poller struct {
	hordeClient  *horde.Client
	jobRepo      *repository.JobRepository
	materializer *galleryservice.Materializer
	interval     time.Duration
	maxJobAge    time.Duration
}

// NewPoller creates a new Poller
func NewPoller(hordeClient *horde.Client, jobRepo *repository.JobRepository, materializer *galleryservice.Materializer, interval, maxJobAge time.Duration) *Poller {
	return &Poller{
		hordeClient:  hordeClient,
		jobRepo:      jobRepo,
		materializer: materializer,
		interval:     interval,
		maxJobAge:    maxJobAge,
	}
}

// Run polls until ctx is cancelled. Intended to run as one goroutine.
func (p *Poller) Run(ctx context.Context) {
	logger := horde.NewLogger(ctx)
	logger.LogInfof("poller", "started interval=%s max_job_age=%s", p.interval, p.maxJobAge)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.LogInfof("poller", "stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single tick over the pending set.
func (p *Poller) PollOnce(ctx context.Context) {
	logger := horde.NewLogger(ctx)

	ids, err := p.jobRepo.ListPending()
	if err != nil {
		logger.LogError("poll_tick", err)
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		p.pollJob(ctx, id)
	}
}

func (p *Poller) pollJob(ctx context.Context, jobID string) {
	logger := horde.NewLogger(ctx)

	job, err := p.jobRepo.GetByJobID(jobID)
	if err == domain.ErrJobNotFound {
		// Cancelled or forgotten since the tick started.
		return
	}
	if err != nil {
		logger.LogError("poll_job", err)
		return
	}
	if job.IsTerminal() {
		return
	}

	if p.maxJobAge > 0 && time.Since(job.CreatedAt) > p.maxJobAge {
		p.giveUp(ctx, job)
		return
	}

	check, err := p.hordeClient.Check(ctx, job.HordeID)
	if horde.IsNotFound(err) {
		p.fail(ctx, job, "request expired on the horde")
		return
	}
	if err != nil {
		// Transient upstream trouble; the next tick retries.
		logger.LogWarnf("poll_job", "check failed for job_id=%s: %v", job.JobID, err)
		return
	}

	job.Progress = domain.Progress{
		Waiting:       check.Waiting,
		Processing:    check.Processing,
		Finished:      check.Finished,
		Restarted:     check.Restarted,
		QueuePosition: check.QueuePosition,
		WaitTime:      check.WaitTime,
		IsPossible:    check.IsPossible,
	}
	if check.Kudos > 0 {
		job.Kudos = check.Kudos
	}

	switch {
	case check.Faulted:
		p.fail(ctx, job, "generation faulted on the horde")
		return
	case check.Done:
		p.finish(ctx, job)
		return
	case check.Processing > 0 || check.Finished > 0:
		job.Status = domain.StatusProcessing
	}

	if err := p.jobRepo.Update(job); err != nil && err != domain.ErrJobTerminal {
		logger.LogError("poll_job", err)
	}
}

func (p *Poller) finish(ctx context.Context, job *domain.Job) {
	logger := horde.NewLogger(ctx)

	status, err := p.hordeClient.Status(ctx, job.HordeID)
	if horde.IsNotFound(err) {
		p.fail(ctx, job, "request expired on the horde")
		return
	}
	if err != nil {
		logger.LogWarnf("poll_job", "status fetch failed for job_id=%s: %v", job.JobID, err)
		return
	}

	images, err := p.materializer.Materialize(ctx, job, status.Generations)
	if err != nil {
		logger.LogError("materialize", err)
		p.fail(ctx, job, "failed to store results")
		return
	}
	logger.LogInfof("poll_job", "job_id=%s done images=%v", job.JobID, galleryservice.IDs(images))

	now := time.Now()
	job.Status = domain.StatusDone
	job.CompletedAt = &now
	if err := p.jobRepo.Update(job); err != nil && err != domain.ErrJobTerminal {
		logger.LogError("poll_job", err)
	}
}

// giveUp cancels a job upstream that exceeded the max age and marks it
// failed locally.
func (p *Poller) giveUp(ctx context.Context, job *domain.Job) {
	logger := horde.NewLogger(ctx)
	logger.LogWarnf("poll_job", "job_id=%s exceeded max age, cancelling upstream", job.JobID)

	if _, err := p.hordeClient.Cancel(ctx, job.HordeID); err != nil && !horde.IsNotFound(err) {
		logger.LogWarnf("poll_job", "stale cancel failed for job_id=%s: %v", job.JobID, err)
	}
	p.fail(ctx, job, "gave up waiting for the horde")
}

func (p *Poller) fail(ctx context.Context, job *domain.Job, reason string) {
	logger := horde.NewLogger(ctx)

	now := time.Now()
	job.Status = domain.StatusFailed
	job.Error = reason
	job.CompletedAt = &now
	if err := p.jobRepo.Update(job); err != nil && err != domain.ErrJobTerminal {
		logger.LogError("poll_job", err)
	}
}
