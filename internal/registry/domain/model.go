package domain

import "errors"

var ErrModelNotFound = errors.New("model not found")

// ModelDetails merges live horde availability with the static model
// reference metadata for one model.
type ModelDetails struct {
	Name string `json:"name"`

	// Availability, from /status/models
	WorkerCount int     `json:"worker_count"`
	Performance float64 `json:"performance"`
	Queued      float64 `json:"queued"`
	Jobs        float64 `json:"jobs"`
	ETA         int     `json:"eta"`

	// Metadata, from the reference document. Empty when the model is
	// active on the horde but unknown to the reference.
	Description string   `json:"description,omitempty"`
	Baseline    string   `json:"baseline,omitempty"`
	Version     string   `json:"version,omitempty"`
	Style       string   `json:"style,omitempty"`
	Homepage    string   `json:"homepage,omitempty"`
	Inpainting  bool     `json:"inpainting"`
	NSFW        bool     `json:"nsfw"`
	Trigger     []string `json:"trigger,omitempty"`
	Showcases   []string `json:"showcases,omitempty"`
}
