package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YRUSONOZ/stable-ui/internal/gallery/repository"
	gendomain "github.com/YRUSONOZ/stable-ui/internal/generate/domain"
	"github.com/YRUSONOZ/stable-ui/internal/horde"
)

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89, 0x00, 0x00, 0x00,
	0x0A, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
}

func setupMaterializer(t *testing.T) (*Materializer, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMaterializer(repository.NewImageRepository(db)), mock
}

func testJob() *gendomain.Job {
	return &gendomain.Job{
		JobID: "job-1",
		Params: gendomain.Params{
			Prompt:         "a lighthouse",
			NegativePrompt: "blurry",
			Sampler:        "k_euler_a",
			Steps:          30,
			Width:          512,
			Height:         512,
			CfgScale:       7,
		},
	}
}

func TestMaterializer_InlinePayload(t *testing.T) {
	m, mock := setupMaterializer(t)
	payload := base64.StdEncoding.EncodeToString(pngBytes)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO gallery_images`).
		WithArgs(
			sqlmock.AnyArg(), // id
			"job-1",
			"gen-1",
			payload,
			"image/png",
			"a lighthouse",
			"blurry",
			"k_euler_a",
			30,
			512,
			512,
			float64(7),
			"42",
			"Deliberate",
			"w1",
			"speedy",
			false,
			false,
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	images, err := m.Materialize(context.Background(), testJob(), []horde.Generation{{
		Img:        payload,
		Seed:       "42",
		ID:         "gen-1",
		Model:      "Deliberate",
		WorkerID:   "w1",
		WorkerName: "speedy",
	}})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.NotEmpty(t, images[0].ID)
	assert.Equal(t, "42", images[0].Seed)
	assert.Equal(t, "image/png", images[0].ContentType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializer_R2Download(t *testing.T) {
	m, mock := setupMaterializer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	}))
	defer server.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO gallery_images`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	images, err := m.Materialize(context.Background(), testJob(), []horde.Generation{{
		Img:  server.URL + "/generated/abc.webp",
		Seed: "7",
		ID:   "gen-1",
	}})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), images[0].Payload)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializer_FailedDownloadSkipsGeneration(t *testing.T) {
	m, mock := setupMaterializer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	// only the healthy generation gets inserted
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO gallery_images`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	images, err := m.Materialize(context.Background(), testJob(), []horde.Generation{
		{Img: server.URL + "/gone.webp", ID: "gen-bad"},
		{Img: base64.StdEncoding.EncodeToString(pngBytes), ID: "gen-good", Seed: "1"},
	})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "gen-good", images[0].HordeID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializer_CensoredGeneration(t *testing.T) {
	m, mock := setupMaterializer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO gallery_images`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	images, err := m.Materialize(context.Background(), testJob(), []horde.Generation{{
		Img:      base64.StdEncoding.EncodeToString([]byte("censor-placeholder")),
		ID:       "gen-1",
		Censored: true,
	}})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.True(t, images[0].Censored)
	assert.Equal(t, "image/webp", images[0].ContentType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializer_EmptyBatch(t *testing.T) {
	m, mock := setupMaterializer(t)

	images, err := m.Materialize(context.Background(), testJob(), nil)
	require.NoError(t, err)
	assert.Empty(t, images)
	require.NoError(t, mock.ExpectationsWereMet())
}
