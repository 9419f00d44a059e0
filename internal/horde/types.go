package horde

// GenerationInput is the request body for POST /api/v2/generate/async.
type GenerationInput struct {
	Prompt           string            `json:"prompt"`
	Params           *GenerationParams `json:"params,omitempty"`
	NSFW             bool              `json:"nsfw"`
	CensorNSFW       bool              `json:"censor_nsfw"`
	TrustedWorkers   bool              `json:"trusted_workers"`
	SlowWorkers      bool              `json:"slow_workers"`
	Models           []string          `json:"models,omitempty"`
	SourceImage      string            `json:"source_image,omitempty"`
	SourceProcessing string            `json:"source_processing,omitempty"`
	SourceMask       string            `json:"source_mask,omitempty"`
	R2               bool              `json:"r2"`
	Shared           bool              `json:"shared"`
}

// GenerationParams are the sampler knobs nested under "params".
type GenerationParams struct {
	SamplerName       string   `json:"sampler_name,omitempty"`
	CfgScale          float64  `json:"cfg_scale,omitempty"`
	DenoisingStrength float64  `json:"denoising_strength,omitempty"`
	Seed              string   `json:"seed,omitempty"`
	Height            int      `json:"height,omitempty"`
	Width             int      `json:"width,omitempty"`
	SeedVariation     int      `json:"seed_variation,omitempty"`
	PostProcessing    []string `json:"post_processing,omitempty"`
	Karras            bool     `json:"karras"`
	Tiling            bool     `json:"tiling"`
	HiresFix          bool     `json:"hires_fix"`
	ClipSkip          int      `json:"clip_skip,omitempty"`
	Steps             int      `json:"steps,omitempty"`
	N                 int      `json:"n,omitempty"`
}

// RequestAccepted is the 202 response to a submit.
type RequestAccepted struct {
	ID      string  `json:"id"`
	Kudos   float64 `json:"kudos"`
	Message string  `json:"message,omitempty"`
}

// RequestCheck is the response of GET /api/v2/generate/check/{id}.
type RequestCheck struct {
	Finished      int     `json:"finished"`
	Processing    int     `json:"processing"`
	Restarted     int     `json:"restarted"`
	Waiting       int     `json:"waiting"`
	Done          bool    `json:"done"`
	Faulted       bool    `json:"faulted"`
	WaitTime      int     `json:"wait_time"`
	QueuePosition int     `json:"queue_position"`
	Kudos         float64 `json:"kudos"`
	IsPossible    bool    `json:"is_possible"`
}

// RequestStatus is the response of GET/DELETE /api/v2/generate/status/{id}.
// A cancel returns the same shape with whatever generations finished first.
type RequestStatus struct {
	RequestCheck
	Generations []Generation `json:"generations"`
	Shared      bool         `json:"shared"`
}

// Generation is one finished image. Img holds base64 payload bytes, or a
// download URL when the request was submitted with r2 enabled.
type Generation struct {
	Img        string `json:"img"`
	Seed       string `json:"seed"`
	ID         string `json:"id"`
	Censored   bool   `json:"censored"`
	WorkerID   string `json:"worker_id"`
	WorkerName string `json:"worker_name"`
	Model      string `json:"model"`
	State      string `json:"state"`
}

// ActiveModel is one entry of GET /api/v2/status/models.
type ActiveModel struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	Performance float64 `json:"performance"`
	Queued      float64 `json:"queued"`
	Jobs        float64 `json:"jobs"`
	ETA         int     `json:"eta"`
	Type        string  `json:"type"`
}

// ModelReferenceEntry is one record of the static model reference document,
// keyed by model name. It carries descriptive metadata the live models
// endpoint does not have.
type ModelReferenceEntry struct {
	Name        string   `json:"name"`
	Baseline    string   `json:"baseline"`
	Type        string   `json:"type"`
	Inpainting  bool     `json:"inpainting"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Style       string   `json:"style"`
	Homepage    string   `json:"homepage"`
	NSFW        bool     `json:"nsfw"`
	Trigger     []string `json:"trigger,omitempty"`
	Showcases   []string `json:"showcases,omitempty"`
}
