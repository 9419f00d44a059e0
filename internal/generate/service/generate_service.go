package service

import (
	"context"
	"fmt"
	"time"

	galleryservice "github.com/YRUSONOZ/stable-ui/internal/gallery/service"
	"github.com/YRUSONOZ/stable-ui/internal/generate/domain"
	"github.com/YRUSONOZ/stable-ui/internal/generate/repository"
	"github.com/YRUSONOZ/stable-ui/internal/horde"
)

// GenerateService handles business logic for generation jobs
type GenerateService struct {
	hordeClient  *horde.Client
	jobRepo      *repository.JobRepository
	materializer *galleryservice.Materializer
}

// NewGenerateService creates a new GenerateService
func NewGenerateService(hordeClient *horde.Client, jobRepo *repository.JobRepository, materializer *galleryservice.Materializer) *GenerateService {
	return &GenerateService{
		hordeClient:  hordeClient,
		jobRepo:      jobRepo,
		materializer: materializer,
	}
}

// Submit validates and defaults the parameters, submits the request to the
// horde and persists the job as queued.
func (s *GenerateService) Submit(ctx context.Context, req *domain.SubmitRequest) (*domain.Job, error) {
	params := req.Params
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params.ApplyDefaults()

	accepted, err := s.hordeClient.Submit(ctx, toGenerationInput(&params), req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("submit to horde: %w", err)
	}

	job := &domain.Job{
		HordeID: accepted.ID,
		Status:  domain.StatusQueued,
		Params:  params,
		Kudos:   accepted.Kudos,
		Progress: domain.Progress{
			Waiting:    params.N,
			IsPossible: true,
		},
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get retrieves a job by its ID
func (s *GenerateService) Get(jobID string) (*domain.Job, error) {
	return s.jobRepo.GetByJobID(jobID)
}

// List retrieves recent jobs, newest first
func (s *GenerateService) List(limit int) ([]*domain.Job, error) {
	return s.jobRepo.ListRecent(limit)
}

// Cancel cancels a pending job upstream. Generations that finished before
// the cancel are harvested into the gallery.
func (s *GenerateService) Cancel(ctx context.Context, jobID string) (*domain.Job, error) {
	logger := horde.NewLogger(ctx)

	job, err := s.jobRepo.GetByJobID(jobID)
	if err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return nil, domain.ErrJobTerminal
	}

	status, err := s.hordeClient.Cancel(ctx, job.HordeID)
	switch {
	case err == nil:
		if len(status.Generations) > 0 {
			if _, err := s.materializer.Materialize(ctx, job, status.Generations); err != nil {
				logger.LogWarnf("cancel", "partial results lost for job_id=%s: %v", jobID, err)
			}
		}
	case horde.IsNotFound(err):
		// Already gone upstream; nothing to harvest.
	default:
		return nil, fmt.Errorf("cancel on horde: %w", err)
	}

	now := time.Now()
	job.Status = domain.StatusCancelled
	job.CompletedAt = &now
	if err := s.jobRepo.Update(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Forget drops local job state without touching the horde.
func (s *GenerateService) Forget(jobID string) error {
	return s.jobRepo.Delete(jobID)
}

func toGenerationInput(p *domain.Params) *horde.GenerationInput {
	return &horde.GenerationInput{
		Prompt: p.FullPrompt(),
		Params: &horde.GenerationParams{
			SamplerName:       p.Sampler,
			CfgScale:          p.CfgScale,
			DenoisingStrength: p.Denoise,
			Seed:              p.Seed,
			Height:            p.Height,
			Width:             p.Width,
			PostProcessing:    p.PostProcessing,
			Karras:            p.Karras,
			Tiling:            p.Tiling,
			HiresFix:          p.HiresFix,
			ClipSkip:          p.ClipSkip,
			Steps:             p.Steps,
			N:                 p.N,
		},
		NSFW:             p.NSFW,
		CensorNSFW:       p.CensorNSFW,
		TrustedWorkers:   p.TrustedWorkers,
		SlowWorkers:      p.SlowWorkers,
		Models:           p.Models,
		SourceImage:      p.SourceImage,
		SourceProcessing: p.SourceProcessing,
		SourceMask:       p.SourceMask,
		R2:               true,
		Shared:           p.Shared,
	}
}
