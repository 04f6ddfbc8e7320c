package darahapi

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

// ErrorKind tells transport failures apart from failures the API reported itself.
type ErrorKind string

const (
	// KindTransport means no usable HTTP response was received.
	KindTransport ErrorKind = "transport"
	// KindApplication means the API answered with a non-2xx status or success=false.
	KindApplication ErrorKind = "application"
	// KindDecode means the response body was not valid JSON.
	KindDecode ErrorKind = "decode"
)

const (
	networkErrorMessage = "Network error occurred"
	fallbackMessage     = "Request failed"
)

// APIError describes a failed upstream call.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Method  string
	Path    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// toAppError classifies an APIError so callers can branch on apperrors codes and show its message.
func toAppError(e *APIError) error {
	switch {
	case e.Kind == KindTransport:
		return apperrors.Wrap(e, apperrors.ErrCodeUnavailable, e.Message)
	case e.Status == http.StatusNotFound:
		return apperrors.Wrap(e, apperrors.ErrCodeNotFound, e.Message)
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return apperrors.Wrap(e, apperrors.ErrCodeValidation, e.Message)
	case e.Status == http.StatusConflict:
		return apperrors.Wrap(e, apperrors.ErrCodeConflict, e.Message)
	default:
		return apperrors.Upstream(e.Message, e)
	}
}

// errorMessage picks the most specific message an error body offers.
func errorMessage(env map[string]any, status int) string {
	if meta, ok := env["meta"].(map[string]any); ok {
		if s, ok := meta["message"].(string); ok && s != "" {
			return s
		}
	}
	for _, key := range []string{"error", "message"} {
		if s, ok := env[key].(string); ok && s != "" {
			return s
		}
	}
	if status > 0 {
		if text := http.StatusText(status); text != "" {
			return text
		}
	}
	return fallbackMessage
}
