package horde

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is the {message, rc} envelope the horde returns on non-2xx
// responses, annotated with the HTTP status code.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	RC         string `json:"rc,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("horde: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("horde: unexpected status %d", e.StatusCode)
}

// IsNotFound reports whether err is a horde 404, meaning the request ID
// is unknown upstream or has already expired.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is a horde 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	return apiErr
}
