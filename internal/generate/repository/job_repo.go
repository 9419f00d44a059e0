package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YRUSONOZ/stable-ui/internal/generate/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix          = "gen:job:"    // Job data: gen:job:{job_id}
	pendingSetKey         = "gen:pending" // Set of job IDs the poller still tracks
	recentZSetKey         = "gen:recent"  // Sorted set of job IDs by creation time
	hordeIDPrefix         = "gen:horde:"  // Mapping from horde request ID to job ID
	jobEventChannelPrefix = "gen:events:" // Pub/Sub channel per job: gen:events:{job_id}

	// GlobalEventChannel carries every job update for websocket fan-out.
	GlobalEventChannel = "gen:events:all"

	defaultJobTTL = 72 * time.Hour

	// Optimistic retries for Update when the watched job key changes
	// between read and write.
	maxUpdateRetries = 3
)

// JobRepository handles Redis operations for generation jobs
type JobRepository struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewJobRepository creates a new JobRepository. A non-positive ttl falls
// back to the default.
func NewJobRepository(client *redis.Client, ttl time.Duration) *JobRepository {
	if ttl <= 0 {
		ttl = defaultJobTTL
	}
	return &JobRepository{
		client: client,
		ctx:    context.Background(),
		ttl:    ttl,
	}
}

// Create persists a new job, indexes it for the poller and publishes the
// initial state.
func (r *JobRepository) Create(job *domain.Job) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(r.ctx, r.jobKey(job.JobID), data, r.ttl)
	pipe.ZAdd(r.ctx, recentZSetKey, redis.Z{Score: float64(job.CreatedAt.UnixNano()), Member: job.JobID})
	if !job.IsTerminal() {
		pipe.SAdd(r.ctx, pendingSetKey, job.JobID)
	}
	if job.HordeID != "" {
		pipe.Set(r.ctx, r.hordeIDKey(job.HordeID), job.JobID, r.ttl)
	}

	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	r.publish(job)
	return nil
}

// GetByJobID retrieves a job by its ID
func (r *JobRepository) GetByJobID(jobID string) (*domain.Job, error) {
	data, err := r.client.Get(r.ctx, r.jobKey(jobID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// GetByHordeID retrieves a job by the horde's request ID
func (r *JobRepository) GetByHordeID(hordeID string) (*domain.Job, error) {
	jobID, err := r.client.Get(r.ctx, r.hordeIDKey(hordeID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve horde id: %w", err)
	}
	return r.GetByJobID(jobID)
}

// Update persists a changed job, maintains the pending index and publishes
// the new state. A job that is already terminal in Redis stays as it is:
// the write is refused with ErrJobTerminal so a slow writer holding a stale
// snapshot cannot resurrect a cancelled or finished job.
func (r *JobRepository) Update(job *domain.Job) error {
	job.UpdatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	key := r.jobKey(job.JobID)
	txn := func(tx *redis.Tx) error {
		stored, err := tx.Get(r.ctx, key).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var current domain.Job
			if jsonErr := json.Unmarshal([]byte(stored), &current); jsonErr == nil && current.IsTerminal() {
				return domain.ErrJobTerminal
			}
		}

		_, err = tx.TxPipelined(r.ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(r.ctx, key, data, r.ttl)
			if job.IsTerminal() {
				pipe.SRem(r.ctx, pendingSetKey, job.JobID)
			} else {
				pipe.SAdd(r.ctx, pendingSetKey, job.JobID)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err = r.client.Watch(r.ctx, txn, key)
		if err != redis.TxFailedErr {
			break
		}
		// Key changed between read and write; re-check the stored status.
	}
	if err == domain.ErrJobTerminal {
		return domain.ErrJobTerminal
	}
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	r.publish(job)
	return nil
}

// ListPending returns the job IDs the poller still tracks
func (r *JobRepository) ListPending() ([]string, error) {
	ids, err := r.client.SMembers(r.ctx, pendingSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	return ids, nil
}

// ListRecent returns up to limit jobs, newest first. Jobs whose data has
// expired are skipped and dropped from the index.
func (r *JobRepository) ListRecent(limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := r.client.ZRevRange(r.ctx, recentZSetKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent jobs: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(ids))
	for _, id := range ids {
		job, err := r.GetByJobID(id)
		if err == domain.ErrJobNotFound {
			r.client.ZRem(r.ctx, recentZSetKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Delete removes a job and all its indexes
func (r *JobRepository) Delete(jobID string) error {
	job, err := r.GetByJobID(jobID)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(r.ctx, r.jobKey(jobID))
	pipe.SRem(r.ctx, pendingSetKey, jobID)
	pipe.ZRem(r.ctx, recentZSetKey, jobID)
	if job.HordeID != "" {
		pipe.Del(r.ctx, r.hordeIDKey(job.HordeID))
	}

	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (r *JobRepository) publish(job *domain.Job) {
	data, err := json.Marshal(job)
	if err != nil {
		return
	}
	r.client.Publish(r.ctx, r.jobEventChannel(job.JobID), data)
	r.client.Publish(r.ctx, GlobalEventChannel, data)
}

func (r *JobRepository) jobKey(jobID string) string {
	return fmt.Sprintf("%s%s", jobKeyPrefix, jobID)
}

func (r *JobRepository) hordeIDKey(hordeID string) string {
	return fmt.Sprintf("%s%s", hordeIDPrefix, hordeID)
}

func (r *JobRepository) jobEventChannel(jobID string) string {
	return fmt.Sprintf("%s%s", jobEventChannelPrefix, jobID)
}
