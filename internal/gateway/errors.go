package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// HTTPError is a non-2xx response from the calendar provider for a single
// API call. Body carries the provider-supplied message for diagnostics.
type HTTPError struct {
	Status int
	Body   string
	err    error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("calendar API returned status %d: %s", e.Status, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return e.err
}

// CalendarCreationError reports that a dedicated course calendar could not
// be created. The caller decides whether to fall back to another calendar.
type CalendarCreationError struct {
	CourseCode string
	Err        error
}

func (e *CalendarCreationError) Error() string {
	return fmt.Sprintf("failed to create calendar for %s: %v", e.CourseCode, e.Err)
}

func (e *CalendarCreationError) Unwrap() error {
	return e.Err
}

// asHTTPError converts a Google API client error into a typed HTTPError,
// preserving the provider's message. Transport-level failures (no response
// at all) pass through unchanged.
func asHTTPError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &HTTPError{Status: apiErr.Code, Body: apiErr.Message, err: err}
	}
	return err
}

// IsRateLimit reports whether err is a provider throttling response: HTTP
// 429, a 403 carrying one of Google's rate-limit reasons, or a message
// containing a rate-limit marker. Only these failures are worth retrying;
// everything else is a permanent request error.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return true
		}
		for _, item := range apiErr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusTooManyRequests {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
