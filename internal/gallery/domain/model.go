package domain

import (
	"errors"
	"time"
)

var ErrImageNotFound = errors.New("gallery image not found")

// Image is one finished generation materialized into the gallery. Payload
// holds the base64-encoded image bytes as delivered by the horde (or
// downloaded from R2 and inlined).
type Image struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	HordeID     string    `json:"horde_id"`
	Payload     string    `json:"payload,omitempty"`
	ContentType string    `json:"content_type"`

	// Parameters echoed from the request, plus the seed the worker
	// actually used.
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Sampler        string  `json:"sampler"`
	Steps          int     `json:"steps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CfgScale       float64 `json:"cfg_scale"`
	Seed           string  `json:"seed"`

	Model      string `json:"model"`
	WorkerID   string `json:"worker_id"`
	WorkerName string `json:"worker_name"`
	Censored   bool   `json:"censored"`
	Favorite   bool   `json:"favorite"`

	CreatedAt time.Time `json:"created_at"`
}

// ListFilter narrows gallery listings.
type ListFilter struct {
	Limit         int
	Offset        int
	FavoritesOnly bool
}
