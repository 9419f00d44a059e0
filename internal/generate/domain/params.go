package domain

import (
	"fmt"
	"strings"
)

// Params are the user-facing generation parameters. Zero values are filled
// with defaults at submit time.
type Params struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	Models         []string `json:"models,omitempty"`
	Sampler        string   `json:"sampler,omitempty"`
	Steps          int      `json:"steps,omitempty"`
	Width          int      `json:"width,omitempty"`
	Height         int      `json:"height,omitempty"`
	CfgScale       float64  `json:"cfg_scale,omitempty"`
	Seed           string   `json:"seed,omitempty"`
	N              int      `json:"n,omitempty"`
	Denoise        float64  `json:"denoise,omitempty"`
	ClipSkip       int      `json:"clip_skip,omitempty"`
	Karras         bool     `json:"karras"`
	Tiling         bool     `json:"tiling"`
	HiresFix       bool     `json:"hires_fix"`
	PostProcessing []string `json:"post_processing,omitempty"`

	// img2img / inpainting pass-through; the canvas producing these is
	// external, we only validate and forward.
	SourceImage      string `json:"source_image,omitempty"`
	SourceMask       string `json:"source_mask,omitempty"`
	SourceProcessing string `json:"source_processing,omitempty"`

	NSFW           bool `json:"nsfw"`
	CensorNSFW     bool `json:"censor_nsfw"`
	TrustedWorkers bool `json:"trusted_workers"`
	SlowWorkers    bool `json:"slow_workers"`
	Shared         bool `json:"shared"`
}

const (
	MinDimension = 64
	MaxDimension = 1024
	MaxSteps     = 500
	MaxBatch     = 20
	MaxCfgScale  = 24
	MaxClipSkip  = 10
	MaxPromptLen = 4096
)

var knownSamplers = map[string]bool{
	"k_lms": true, "k_heun": true, "k_euler": true, "k_euler_a": true,
	"k_dpm_2": true, "k_dpm_2_a": true, "k_dpm_fast": true,
	"k_dpm_adaptive": true, "k_dpmpp_2s_a": true, "k_dpmpp_2m": true,
	"k_dpmpp_sde": true, "dpmsolver": true, "DDIM": true,
}

var knownPostProcessors = map[string]bool{
	"GFPGAN": true, "CodeFormers": true, "RealESRGAN_x4plus": true,
	"RealESRGAN_x4plus_anime_6B": true, "strip_background": true,
}

var knownSourceProcessing = map[string]bool{
	"img2img": true, "inpainting": true, "outpainting": true,
}

// Validate checks the ad-hoc range rules. All violations are reported as
// ErrInvalidParams with a description of the first failing field.
func (p *Params) Validate() error {
	if strings.TrimSpace(p.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidParams)
	}
	if len(p.Prompt) > MaxPromptLen {
		return fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidParams, MaxPromptLen)
	}
	if err := validateDimension("width", p.Width); err != nil {
		return err
	}
	if err := validateDimension("height", p.Height); err != nil {
		return err
	}
	if p.Steps < 0 || p.Steps > MaxSteps {
		return fmt.Errorf("%w: steps must be within [1, %d]", ErrInvalidParams, MaxSteps)
	}
	if p.N < 0 || p.N > MaxBatch {
		return fmt.Errorf("%w: n must be within [1, %d]", ErrInvalidParams, MaxBatch)
	}
	if p.CfgScale != 0 && (p.CfgScale < 1 || p.CfgScale > MaxCfgScale) {
		return fmt.Errorf("%w: cfg_scale must be within [1, %d]", ErrInvalidParams, MaxCfgScale)
	}
	if p.Denoise != 0 && (p.Denoise < 0.1 || p.Denoise > 1) {
		return fmt.Errorf("%w: denoise must be within [0.1, 1]", ErrInvalidParams)
	}
	if p.ClipSkip != 0 && (p.ClipSkip < 1 || p.ClipSkip > MaxClipSkip) {
		return fmt.Errorf("%w: clip_skip must be within [1, %d]", ErrInvalidParams, MaxClipSkip)
	}
	if p.Sampler != "" && !knownSamplers[p.Sampler] {
		return fmt.Errorf("%w: unknown sampler %q", ErrInvalidParams, p.Sampler)
	}
	for _, pp := range p.PostProcessing {
		if !knownPostProcessors[pp] {
			return fmt.Errorf("%w: unknown post-processor %q", ErrInvalidParams, pp)
		}
	}
	if p.SourceImage != "" {
		if p.SourceProcessing != "" && !knownSourceProcessing[p.SourceProcessing] {
			return fmt.Errorf("%w: unknown source_processing %q", ErrInvalidParams, p.SourceProcessing)
		}
	} else if p.SourceMask != "" {
		return fmt.Errorf("%w: source_mask requires source_image", ErrInvalidParams)
	}
	return nil
}

func validateDimension(name string, v int) error {
	if v == 0 {
		return nil // default applied later
	}
	if v < MinDimension || v > MaxDimension {
		return fmt.Errorf("%w: %s must be within [%d, %d]", ErrInvalidParams, name, MinDimension, MaxDimension)
	}
	if v%64 != 0 {
		return fmt.Errorf("%w: %s must be divisible by 64", ErrInvalidParams, name)
	}
	return nil
}

// ApplyDefaults fills zero values with the defaults used at submit time.
func (p *Params) ApplyDefaults() {
	if p.Width == 0 {
		p.Width = 512
	}
	if p.Height == 0 {
		p.Height = 512
	}
	if p.Sampler == "" {
		p.Sampler = "k_euler_a"
	}
	if p.Steps == 0 {
		p.Steps = 30
	}
	if p.CfgScale == 0 {
		p.CfgScale = 7
	}
	if p.N == 0 {
		p.N = 1
	}
	if p.SourceImage != "" && p.SourceProcessing == "" {
		p.SourceProcessing = "img2img"
	}
}

// FullPrompt joins the positive and negative prompt with the horde's
// "###" separator.
func (p *Params) FullPrompt() string {
	if strings.TrimSpace(p.NegativePrompt) == "" {
		return p.Prompt
	}
	return p.Prompt + " ### " + p.NegativePrompt
}
