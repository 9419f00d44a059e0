package horde

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Submit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/generate/async" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("apikey") != "0000000000" {
			t.Errorf("expected anonymous apikey header, got %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Client-Agent") == "" {
			t.Error("expected Client-Agent header")
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"id": "req-1", "kudos": 12.5}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)

	accepted, err := client.Submit(context.Background(), &GenerationInput{Prompt: "a cat"}, "")
	require.NoError(t, err)
	assert.Equal(t, "req-1", accepted.ID)
	assert.Equal(t, 12.5, accepted.Kudos)
}

func TestClient_Submit_KeyOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "user-key" {
			t.Errorf("expected overridden apikey, got %q", r.Header.Get("apikey"))
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"id": "req-2"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "default-key", "stable-ui-test:1.0", 0)

	_, err := client.Submit(context.Background(), &GenerationInput{Prompt: "a dog"}, "user-key")
	require.NoError(t, err)
}

func TestClient_Submit_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "Too many concurrent requests", "rc": "TooManyPrompts"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)

	_, err := client.Submit(context.Background(), &GenerationInput{Prompt: "a cat"}, "")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Contains(t, err.Error(), "Too many concurrent requests")
}

func TestClient_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/generate/check/req-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"finished": 1, "processing": 1, "waiting": 0, "done": false, "queue_position": 3, "wait_time": 42, "is_possible": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)

	check, err := client.Check(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, 1, check.Finished)
	assert.Equal(t, 3, check.QueuePosition)
	assert.Equal(t, 42, check.WaitTime)
	assert.False(t, check.Done)
	assert.True(t, check.IsPossible)
}

func TestClient_Check_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Request Not Found", "rc": "RequestNotFound"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)

	_, err := client.Check(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRateLimited(err))
}

func TestClient_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/generate/status/req-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"finished": 1, "done": true,
			"generations": [{"img": "aGVsbG8=", "seed": "123", "id": "gen-1", "model": "Deliberate", "worker_id": "w1", "worker_name": "speedy"}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)

	status, err := client.Status(context.Background(), "req-1")
	require.NoError(t, err)
	assert.True(t, status.Done)
	require.Len(t, status.Generations, 1)
	assert.Equal(t, "Deliberate", status.Generations[0].Model)
	assert.Equal(t, "123", status.Generations[0].Seed)
}

func TestClient_Cancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/api/v2/generate/status/req-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"finished": 1, "done": false, "generations": [{"img": "cGFydGlhbA==", "id": "gen-1", "seed": "9"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)

	status, err := client.Cancel(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, status.Generations, 1)
	assert.Equal(t, "cGFydGlhbA==", status.Generations[0].Img)
}

func TestClient_ActiveModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/status/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[
			{"name": "Deliberate", "count": 12, "performance": 1.4, "queued": 300, "eta": 25, "type": "image"},
			{"name": "stable_diffusion", "count": 40, "performance": 0.9, "queued": 1200, "eta": 40, "type": "image"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)

	models, err := client.ActiveModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "Deliberate", models[0].Name)
	assert.Equal(t, 40, models[1].Count)
}

func TestClient_Heartbeat(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)
		assert.NoError(t, client.Heartbeat(context.Background()))
	})

	t.Run("down", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)
		assert.Error(t, client.Heartbeat(context.Background()))
	})
}

func TestMetrics_Recording(t *testing.T) {
	ResetMetrics()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"done": false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "stable-ui-test:1.0", 0)
	_, err := client.Check(context.Background(), "req-1")
	require.NoError(t, err)

	m := GetMetrics()
	assert.Equal(t, int64(1), m.Calls())
	assert.Equal(t, int64(0), m.Errors())
	assert.Equal(t, float64(0), m.ErrorRate())
}
