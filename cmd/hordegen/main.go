package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/YRUSONOZ/stable-ui/internal/generate/domain"
	"github.com/YRUSONOZ/stable-ui/internal/horde"
)

// hordegen submits one generation request to the horde, polls it to
// completion and writes the images to disk.
func main() {
	var (
		prompt   = flag.String("prompt", "", "generation prompt (required)")
		negative = flag.String("negative", "", "negative prompt")
		model    = flag.String("model", "", "model name (horde picks when empty)")
		width    = flag.Int("width", 512, "image width, divisible by 64")
		height   = flag.Int("height", 512, "image height, divisible by 64")
		steps    = flag.Int("steps", 30, "sampler steps")
		sampler  = flag.String("sampler", "k_euler_a", "sampler name")
		count    = flag.Int("n", 1, "number of images")
		apiKey   = flag.String("apikey", horde.AnonymousAPIKey, "horde API key")
		baseURL  = flag.String("base-url", "https://stablehorde.net", "horde base URL")
		outDir   = flag.String("out", ".", "output directory")
		interval = flag.Duration("interval", 3*time.Second, "poll interval")
	)
	flag.Parse()

	if *prompt == "" {
		flag.Usage()
		os.Exit(2)
	}

	params := domain.Params{
		Prompt:         *prompt,
		NegativePrompt: *negative,
		Width:          *width,
		Height:         *height,
		Steps:          *steps,
		Sampler:        *sampler,
		N:              *count,
	}
	if *model != "" {
		params.Models = []string{*model}
	}
	if err := params.Validate(); err != nil {
		log.Fatalf("invalid parameters: %v", err)
	}
	params.ApplyDefaults()

	client := horde.NewClient(*baseURL, *apiKey, "stable-ui-hordegen:1.0:github.com/YRUSONOZ/stable-ui", 0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accepted, err := client.Submit(ctx, toInput(&params), "")
	if err != nil {
		log.Fatalf("submit failed: %v", err)
	}
	fmt.Printf("submitted request %s (kudos %.1f)\n", accepted.ID, accepted.Kudos)

	status, err := poll(ctx, client, accepted.ID, *interval)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if len(status.Generations) == 0 {
		log.Fatal("request finished without generations")
	}
	if err := writeImages(ctx, status.Generations, *outDir); err != nil {
		log.Fatalf("%v", err)
	}
}

// poll checks the request at the given cadence until it is done or
// faulted. On Ctrl-C the request is cancelled upstream before exiting.
func poll(ctx context.Context, client *horde.Client, id string, interval time.Duration) (*horde.RequestStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\ncancelling request on the horde...")
			cancelCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if _, err := client.Cancel(cancelCtx, id); err != nil && !horde.IsNotFound(err) {
				log.Printf("cancel failed: %v", err)
			}
			return nil, fmt.Errorf("interrupted")

		case <-ticker.C:
			check, err := client.Check(ctx, id)
			if horde.IsNotFound(err) {
				return nil, fmt.Errorf("request expired on the horde")
			}
			if err != nil {
				log.Printf("check failed, retrying: %v", err)
				continue
			}
			if check.Faulted {
				return nil, fmt.Errorf("generation faulted on the horde")
			}

			fmt.Printf("queue_position=%d wait_time=%ds waiting=%d processing=%d finished=%d\n",
				check.QueuePosition, check.WaitTime, check.Waiting, check.Processing, check.Finished)
			if !check.IsPossible {
				fmt.Println("warning: no worker currently accepts this request")
			}
			if !check.Done {
				continue
			}

			status, err := client.Status(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("status fetch failed: %w", err)
			}
			return status, nil
		}
	}
}

func writeImages(ctx context.Context, generations []horde.Generation, outDir string) error {
	downloader := &http.Client{Timeout: 60 * time.Second}

	for i, gen := range generations {
		payload := gen.Img
		if strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://") {
			data, err := download(ctx, downloader, payload)
			if err != nil {
				return fmt.Errorf("download image %d: %w", i, err)
			}
			payload = base64.StdEncoding.EncodeToString(data)
		}

		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return fmt.Errorf("decode image %d: %w", i, err)
		}

		name := fmt.Sprintf("%s_%d_seed%s.webp", sanitize(gen.Model), i, gen.Seed)
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("wrote %s (worker %s)\n", path, gen.WorkerName)
	}
	return nil
}

func download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func sanitize(s string) string {
	if s == "" {
		return "image"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

func toInput(p *domain.Params) *horde.GenerationInput {
	return &horde.GenerationInput{
		Prompt: p.FullPrompt(),
		Params: &horde.GenerationParams{
			SamplerName: p.Sampler,
			CfgScale:    p.CfgScale,
			Width:       p.Width,
			Height:      p.Height,
			Steps:       p.Steps,
			N:           p.N,
		},
		Models: p.Models,
		R2:     true,
	}
}
