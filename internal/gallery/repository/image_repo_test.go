package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YRUSONOZ/stable-ui/internal/gallery/domain"
)

func setupImageRepo(t *testing.T) (*ImageRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewImageRepository(db), mock
}

func sampleImage() *domain.Image {
	return &domain.Image{
		JobID:       "job-1",
		HordeID:     "gen-1",
		Payload:     "aGVsbG8=",
		ContentType: "image/webp",
		Prompt:      "a lighthouse",
		Sampler:     "k_euler_a",
		Steps:       30,
		Width:       512,
		Height:      512,
		CfgScale:    7,
		Seed:        "42",
		Model:       "Deliberate",
		WorkerID:    "w1",
		WorkerName:  "speedy",
	}
}

func TestImageRepository_InsertBatch(t *testing.T) {
	repo, mock := setupImageRepo(t)

	t.Run("inserts batch in one transaction", func(t *testing.T) {
		first := sampleImage()
		second := sampleImage()
		second.HordeID = "gen-2"

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO gallery_images`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectQuery(`INSERT INTO gallery_images`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		err := repo.InsertBatch([]*domain.Image{first, second})
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.NotEmpty(t, second.ID)
		assert.False(t, first.CreatedAt.IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on insert failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO gallery_images`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := repo.InsertBatch([]*domain.Image{sampleImage()})
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, repo.InsertBatch(nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func imageColumns() []string {
	return []string{
		"id", "job_id", "horde_id", "payload", "content_type",
		"prompt", "negative_prompt", "sampler", "steps", "width", "height", "cfg_scale", "seed",
		"model", "worker_id", "worker_name", "censored", "favorite", "created_at",
	}
}

func TestImageRepository_GetByID(t *testing.T) {
	repo, mock := setupImageRepo(t)

	t.Run("gets image successfully", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, job_id, horde_id, payload`).
			WithArgs("img-1").
			WillReturnRows(sqlmock.NewRows(imageColumns()).AddRow(
				"img-1", "job-1", "gen-1", "aGVsbG8=", "image/webp",
				"a lighthouse", "blurry", "k_euler_a", 30, 512, 512, 7.0, "42",
				"Deliberate", "w1", "speedy", false, true, time.Now(),
			))

		img, err := repo.GetByID("img-1")
		require.NoError(t, err)
		assert.Equal(t, "img-1", img.ID)
		assert.Equal(t, "blurry", img.NegativePrompt)
		assert.Equal(t, "aGVsbG8=", img.Payload)
		assert.True(t, img.Favorite)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns sentinel for missing image", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, job_id, horde_id, payload`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID("missing")
		assert.ErrorIs(t, err, domain.ErrImageNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func listColumns() []string {
	return []string{
		"id", "job_id", "horde_id", "content_type",
		"prompt", "negative_prompt", "sampler", "steps", "width", "height", "cfg_scale", "seed",
		"model", "worker_id", "worker_name", "censored", "favorite", "created_at",
	}
}

func TestImageRepository_List(t *testing.T) {
	repo, mock := setupImageRepo(t)

	t.Run("lists with pagination", func(t *testing.T) {
		mock.ExpectQuery(`FROM gallery_images\s+ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
			WithArgs(2, 4).
			WillReturnRows(sqlmock.NewRows(listColumns()).
				AddRow("img-2", "job-1", "gen-2", "image/webp", "p", nil, "k_euler_a", 30, 512, 512, 7.0, "2", "m", "w", "n", false, false, time.Now()).
				AddRow("img-1", "job-1", "gen-1", "image/webp", "p", nil, "k_euler_a", 30, 512, 512, 7.0, "1", "m", "w", "n", false, false, time.Now()))

		images, err := repo.List(domain.ListFilter{Limit: 2, Offset: 4})
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "img-2", images[0].ID)
		assert.Empty(t, images[0].Payload, "list must not carry payloads")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters favorites", func(t *testing.T) {
		mock.ExpectQuery(`WHERE favorite = TRUE`).
			WithArgs(50, 0).
			WillReturnRows(sqlmock.NewRows(listColumns()))

		images, err := repo.List(domain.ListFilter{FavoritesOnly: true})
		require.NoError(t, err)
		assert.Empty(t, images)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestImageRepository_Delete(t *testing.T) {
	repo, mock := setupImageRepo(t)

	t.Run("deletes image", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM gallery_images`).
			WithArgs("img-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete("img-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns sentinel when nothing deleted", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM gallery_images`).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete("missing"), domain.ErrImageNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestImageRepository_SetFavorite(t *testing.T) {
	repo, mock := setupImageRepo(t)

	t.Run("sets favorite flag", func(t *testing.T) {
		mock.ExpectExec(`UPDATE gallery_images SET favorite`).
			WithArgs("img-1", true).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SetFavorite("img-1", true))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns sentinel for missing image", func(t *testing.T) {
		mock.ExpectExec(`UPDATE gallery_images SET favorite`).
			WithArgs("missing", false).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SetFavorite("missing", false), domain.ErrImageNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
