package postgres

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS gallery_images (
	id              UUID PRIMARY KEY,
	job_id          TEXT NOT NULL,
	horde_id        TEXT NOT NULL,
	payload         TEXT NOT NULL,
	content_type    TEXT NOT NULL DEFAULT 'image/webp',
	prompt          TEXT NOT NULL,
	negative_prompt TEXT,
	sampler         TEXT NOT NULL,
	steps           INTEGER NOT NULL,
	width           INTEGER NOT NULL,
	height          INTEGER NOT NULL,
	cfg_scale       DOUBLE PRECISION NOT NULL,
	seed            TEXT NOT NULL,
	model           TEXT NOT NULL,
	worker_id       TEXT NOT NULL DEFAULT '',
	worker_name     TEXT NOT NULL DEFAULT '',
	censored        BOOLEAN NOT NULL DEFAULT FALSE,
	favorite        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_gallery_images_created_at ON gallery_images (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_gallery_images_job_id ON gallery_images (job_id);
CREATE INDEX IF NOT EXISTS idx_gallery_images_favorite ON gallery_images (favorite) WHERE favorite;
`

// EnsureSchema applies the DDL on startup. All statements are idempotent.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
