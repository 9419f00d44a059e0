package horde

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// AnonymousAPIKey is the horde's shared key for unauthenticated use.
	AnonymousAPIKey = "0000000000"

	checkTimeout  = 10 * time.Second
	statusTimeout = 30 * time.Second // status responses carry base64 payloads
	submitTimeout = 30 * time.Second
)

// Client talks to the AI Horde v2 API.
type Client struct {
	baseURL     string
	apiKey      string
	clientAgent string

	checkClient  *http.Client
	statusClient *http.Client

	// The horde throttles generate/async aggressively; pace submits
	// client-side instead of eating 429s.
	submitLimiter *rate.Limiter
}

// NewClient creates a horde client. submitPerMinute caps how fast Submit
// calls go out; zero disables the limiter.
func NewClient(baseURL, apiKey, clientAgent string, submitPerMinute int) *Client {
	if apiKey == "" {
		apiKey = AnonymousAPIKey
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if submitPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(submitPerMinute)), 1)
	}
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		clientAgent:   clientAgent,
		checkClient:   &http.Client{Timeout: checkTimeout},
		statusClient:  &http.Client{Timeout: statusTimeout},
		submitLimiter: limiter,
	}
}

// Submit POSTs a generation request. apiKey overrides the client default
// when non-empty. The horde answers 202 with the request ID and kudos cost.
func (c *Client) Submit(ctx context.Context, input *GenerationInput, apiKey string) (*RequestAccepted, error) {
	logger := NewLogger(ctx)
	if err := c.submitLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("submit rate wait: %w", err)
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal generation input: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/generate/async", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.statusClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.LogError("submit", err)
		recordHordeCall(duration, err)
		return nil, fmt.Errorf("horde request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp)
		logger.LogWarnf("submit", "horde returned status %d: %s", resp.StatusCode, apiErr.Message)
		recordHordeCall(duration, apiErr)
		return nil, apiErr
	}
	recordHordeCall(duration, nil)

	var accepted RequestAccepted
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	if accepted.ID == "" {
		return nil, fmt.Errorf("horde accepted request without an id")
	}
	logger.LogInfof("submit", "accepted request_id=%s kudos=%.1f", accepted.ID, accepted.Kudos)
	return &accepted, nil
}

// Check runs the cheap progress poll for a request.
func (c *Client) Check(ctx context.Context, id string) (*RequestCheck, error) {
	var check RequestCheck
	if err := c.getJSON(ctx, c.checkClient, "/api/v2/generate/check/"+id, "check", &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// Status fetches the full request record including finished generations.
func (c *Client) Status(ctx context.Context, id string) (*RequestStatus, error) {
	var status RequestStatus
	if err := c.getJSON(ctx, c.statusClient, "/api/v2/generate/status/"+id, "status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Cancel DELETEs a pending request. The horde responds with the same shape
// as Status, carrying whatever generations finished before the cancel.
func (c *Client) Cancel(ctx context.Context, id string) (*RequestStatus, error) {
	logger := NewLogger(ctx)
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v2/generate/status/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := c.statusClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.LogError("cancel", err)
		recordHordeCall(duration, err)
		return nil, fmt.Errorf("horde request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp)
		logger.LogWarnf("cancel", "horde returned status %d: %s", resp.StatusCode, apiErr.Message)
		recordHordeCall(duration, apiErr)
		return nil, apiErr
	}
	recordHordeCall(duration, nil)

	var status RequestStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode cancel response: %w", err)
	}
	return &status, nil
}

// ActiveModels lists the models currently served by horde workers.
func (c *Client) ActiveModels(ctx context.Context) ([]ActiveModel, error) {
	var models []ActiveModel
	if err := c.getJSON(ctx, c.checkClient, "/api/v2/status/models", "active_models", &models); err != nil {
		return nil, err
	}
	return models, nil
}

// Heartbeat reports whether the horde is reachable and alive.
func (c *Client) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/status/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := c.checkClient.Do(req)
	if err != nil {
		return fmt.Errorf("horde request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, client *http.Client, path, operation string, out any) error {
	logger := NewLogger(ctx)
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.LogError(operation, err)
		recordHordeCall(duration, err)
		return fmt.Errorf("horde request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp)
		logger.LogWarnf(operation, "horde returned status %d: %s", resp.StatusCode, apiErr.Message)
		recordHordeCall(duration, apiErr)
		return apiErr
	}
	recordHordeCall(duration, nil)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, apiKey string) {
	if apiKey == "" {
		apiKey = c.apiKey
	}
	req.Header.Set("apikey", apiKey)
	if c.clientAgent != "" {
		req.Header.Set("Client-Agent", c.clientAgent)
	}
}
