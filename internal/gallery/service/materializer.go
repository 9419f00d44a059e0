package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/YRUSONOZ/stable-ui/internal/gallery/domain"
	"github.com/YRUSONOZ/stable-ui/internal/gallery/repository"
	gendomain "github.com/YRUSONOZ/stable-ui/internal/generate/domain"
	"github.com/YRUSONOZ/stable-ui/internal/horde"
	"github.com/samber/lo"
)

const r2DownloadTimeout = 60 * time.Second

// Maximum inline payload accepted from an R2 download (32 MiB).
const maxPayloadBytes = 32 << 20

// Materializer converts finished horde generations into gallery rows.
type Materializer struct {
	imageRepo  *repository.ImageRepository
	downloader *http.Client
}

// NewMaterializer creates a new Materializer
func NewMaterializer(imageRepo *repository.ImageRepository) *Materializer {
	return &Materializer{
		imageRepo:  imageRepo,
		downloader: &http.Client{Timeout: r2DownloadTimeout},
	}
}

// Materialize maps each generation of a finished (or cancelled) job to a
// gallery image and inserts the batch. Generations the horde delivered as
// R2 URLs are downloaded and inlined first.
func (m *Materializer) Materialize(ctx context.Context, job *gendomain.Job, generations []horde.Generation) ([]*domain.Image, error) {
	logger := horde.NewLogger(ctx)

	images := make([]*domain.Image, 0, len(generations))
	for _, gen := range generations {
		img, err := m.toImage(ctx, job, gen)
		if err != nil {
			// One bad generation should not sink the rest of the batch.
			logger.LogWarnf("materialize", "skipping generation %s: %v", gen.ID, err)
			continue
		}
		images = append(images, img)
	}

	if len(images) == 0 {
		return nil, nil
	}
	if err := m.imageRepo.InsertBatch(images); err != nil {
		return nil, fmt.Errorf("insert gallery batch: %w", err)
	}
	logger.LogInfof("materialize", "stored %d image(s) for job_id=%s", len(images), job.JobID)
	return images, nil
}

func (m *Materializer) toImage(ctx context.Context, job *gendomain.Job, gen horde.Generation) (*domain.Image, error) {
	payload := gen.Img
	if isURL(payload) {
		downloaded, err := m.download(ctx, payload)
		if err != nil {
			return nil, err
		}
		payload = downloaded
	}

	img := &domain.Image{
		JobID:          job.JobID,
		HordeID:        gen.ID,
		Payload:        payload,
		ContentType:    detectContentType(payload, gen.Censored),
		Prompt:         job.Params.Prompt,
		NegativePrompt: job.Params.NegativePrompt,
		Sampler:        job.Params.Sampler,
		Steps:          job.Params.Steps,
		Width:          job.Params.Width,
		Height:         job.Params.Height,
		CfgScale:       job.Params.CfgScale,
		Seed:           gen.Seed,
		Model:          gen.Model,
		WorkerID:       gen.WorkerID,
		WorkerName:     gen.WorkerName,
		Censored:       gen.Censored,
	}
	return img, nil
}

func (m *Materializer) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}

	resp, err := m.downloader.Do(req)
	if err != nil {
		return "", fmt.Errorf("download payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download payload: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// detectContentType sniffs the payload. Censored generations carry
// whatever placeholder the horde sent; no decode beyond that is attempted.
func detectContentType(payload string, censored bool) string {
	const fallback = "image/webp"
	if censored || payload == "" {
		return fallback
	}
	raw, err := base64.StdEncoding.DecodeString(head(payload, 1024))
	if err != nil || len(raw) == 0 {
		return fallback
	}
	ct := http.DetectContentType(raw)
	if !strings.HasPrefix(ct, "image/") {
		return fallback
	}
	return ct
}

// head returns the longest prefix of s, at most n bytes, whose length is a
// multiple of 4 so it stays decodable base64.
func head(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	n -= n % 4
	return s[:n]
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IDs returns the gallery IDs of a materialized batch.
func IDs(images []*domain.Image) []string {
	return lo.Map(images, func(img *domain.Image, _ int) string { return img.ID })
}
