package repository

import (
	"database/sql"
	"fmt"

	"github.com/YRUSONOZ/stable-ui/internal/gallery/domain"
	"github.com/google/uuid"
)

// ImageRepository handles PostgreSQL operations for gallery images
type ImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new ImageRepository
func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

const insertImageQuery = `
	INSERT INTO gallery_images (
		id, job_id, horde_id, payload, content_type,
		prompt, negative_prompt, sampler, steps, width, height, cfg_scale, seed,
		model, worker_id, worker_name, censored, favorite
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	RETURNING created_at
`

const selectImageColumns = `
	SELECT id, job_id, horde_id, payload, content_type,
	       prompt, negative_prompt, sampler, steps, width, height, cfg_scale, seed,
	       model, worker_id, worker_name, censored, favorite, created_at
	FROM gallery_images
`

// InsertBatch inserts a batch of images inside one transaction.
func (r *ImageRepository) InsertBatch(images []*domain.Image) error {
	if len(images) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, img := range images {
		if img.ID == "" {
			img.ID = uuid.New().String()
		}

		var negative sql.NullString
		if img.NegativePrompt != "" {
			negative = sql.NullString{String: img.NegativePrompt, Valid: true}
		}

		err := tx.QueryRow(
			insertImageQuery,
			img.ID,
			img.JobID,
			img.HordeID,
			img.Payload,
			img.ContentType,
			img.Prompt,
			negative,
			img.Sampler,
			img.Steps,
			img.Width,
			img.Height,
			img.CfgScale,
			img.Seed,
			img.Model,
			img.WorkerID,
			img.WorkerName,
			img.Censored,
			img.Favorite,
		).Scan(&img.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit image batch: %w", err)
	}
	return nil
}

// GetByID retrieves an image by its ID
func (r *ImageRepository) GetByID(id string) (*domain.Image, error) {
	row := r.db.QueryRow(selectImageColumns+` WHERE id = $1`, id)

	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

// List retrieves images newest first, with pagination and an optional
// favorites filter. Payloads are excluded; fetch them via GetByID.
func (r *ImageRepository) List(filter domain.ListFilter) ([]*domain.Image, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT id, job_id, horde_id, content_type,
		       prompt, negative_prompt, sampler, steps, width, height, cfg_scale, seed,
		       model, worker_id, worker_name, censored, favorite, created_at
		FROM gallery_images
	`
	args := []any{}
	if filter.FavoritesOnly {
		query += ` WHERE favorite = TRUE`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	images := make([]*domain.Image, 0)
	for rows.Next() {
		var img domain.Image
		var negative sql.NullString
		err := rows.Scan(
			&img.ID, &img.JobID, &img.HordeID, &img.ContentType,
			&img.Prompt, &negative, &img.Sampler, &img.Steps, &img.Width,
			&img.Height, &img.CfgScale, &img.Seed,
			&img.Model, &img.WorkerID, &img.WorkerName, &img.Censored,
			&img.Favorite, &img.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		if negative.Valid {
			img.NegativePrompt = negative.String
		}
		images = append(images, &img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate image rows: %w", err)
	}
	return images, nil
}

// Delete removes an image
func (r *ImageRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM gallery_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

// SetFavorite toggles the favorite flag on an image
func (r *ImageRepository) SetFavorite(id string, favorite bool) error {
	res, err := r.db.Exec(`UPDATE gallery_images SET favorite = $2 WHERE id = $1`, id, favorite)
	if err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

func scanImage(row *sql.Row) (*domain.Image, error) {
	var img domain.Image
	var negative sql.NullString
	err := row.Scan(
		&img.ID, &img.JobID, &img.HordeID, &img.Payload, &img.ContentType,
		&img.Prompt, &negative, &img.Sampler, &img.Steps, &img.Width,
		&img.Height, &img.CfgScale, &img.Seed,
		&img.Model, &img.WorkerID, &img.WorkerName, &img.Censored,
		&img.Favorite, &img.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if negative.Valid {
		img.NegativePrompt = negative.String
	}
	return &img, nil
}
