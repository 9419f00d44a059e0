package domain

import "time"

// Job tracks one generation request submitted to the horde.
type Job struct {
	JobID       string     `json:"job_id"`
	HordeID     string     `json:"horde_id"` // request ID assigned by the horde
	Status      string     `json:"status"`   // queued, processing, done, failed, cancelled
	Params      Params     `json:"params"`
	Kudos       float64    `json:"kudos"`
	Progress    Progress   `json:"progress"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Progress is the latest poll snapshot for a job.
type Progress struct {
	Waiting       int  `json:"waiting"`
	Processing    int  `json:"processing"`
	Finished      int  `json:"finished"`
	Restarted     int  `json:"restarted"`
	QueuePosition int  `json:"queue_position"`
	WaitTime      int  `json:"wait_time"`
	IsPossible    bool `json:"is_possible"`
}

// Job status constants
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// IsTerminal reports whether the job will never be polled again.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusDone || j.Status == StatusFailed || j.Status == StatusCancelled
}

// SubmitRequest carries everything needed to create a job.
type SubmitRequest struct {
	Params Params
	APIKey string // per-request horde key override
}
