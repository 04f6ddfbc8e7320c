package httpx

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

const (
	errMsgFixBelow  = "Please fix the errors below."
	errMsgGeneric   = "An error occurred. Please try again."
	errMsgTimeout   = "Request timed out. Please try again."
	errMsgCanceled  = "Request was canceled."
	errMsgNoNetwork = "Network error occurred"
)

// ErrorRenderer is a function that renders an error template with the given data.
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, data any)

// ErrorOpts contains all options needed to render an error response.
type ErrorOpts struct {
	W http.ResponseWriter
	R *http.Request
	// Err is the error that occurred (optional, can be nil if only field errors)
	Err error
	// FieldErrors contains field-level validation errors (field name → error message)
	FieldErrors map[string]string
	// Renderer is typically h.renderDashboardPage
	Renderer ErrorRenderer
	PageMeta PageMeta
	// Data contains additional template data, such as the list being retried.
	Data map[string]any
	// StatusCode is the HTTP status code to set (optional, defaults to 200 for HTMX compatibility)
	StatusCode int
	// ShowToast sends an HX-Trigger showToast event with the error message.
	ShowToast bool
}

// StatusForError maps an AppError code to an HTTP status. Unclassified errors are 500.
func StatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeUpstream:
		return http.StatusBadGateway
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RenderError renders the page with an error banner and any field errors.
func RenderError(opts ErrorOpts) {
	if opts.Renderer == nil {
		http.Error(opts.W, "misconfigured error renderer", http.StatusInternalServerError)
		return
	}

	builder := NewTemplateData(opts.R, opts.PageMeta)

	generalError := processError(opts.Err, &opts.FieldErrors)

	if len(opts.FieldErrors) > 0 {
		builder.WithFieldErrors(opts.FieldErrors)
	}

	if generalError != "" {
		builder.WithError(generalError)
	} else if len(opts.FieldErrors) > 0 {
		builder.WithError(errMsgFixBelow)
	}

	for k, v := range opts.Data {
		builder.With(k, v)
	}

	if opts.ShowToast && generalError != "" {
		triggerToast(opts.W, generalError, toastError)
	}

	if opts.StatusCode != 0 {
		opts.W.Header().Set("Content-Type", "text/html; charset=utf-8")
		opts.W.WriteHeader(opts.StatusCode)
	}

	opts.Renderer(opts.W, opts.R, builder.Build())
}

// processError returns the message shown to the operator and moves field-level
// validation errors into fieldErrors. Returns empty string if err is nil.
func processError(err error, fieldErrors *map[string]string) string {
	if err == nil {
		return ""
	}
	if field := apperrors.GetField(err); field != "" && apperrors.IsValidation(err) && fieldErrors != nil {
		if *fieldErrors == nil {
			*fieldErrors = make(map[string]string)
		}
		(*fieldErrors)[field] = apperrors.UserMessage(err, "This field is invalid.")
		return errMsgFixBelow
	}
	return userMessage(err)
}

// userMessage is the operator-facing text for err. Upstream messages are shown verbatim;
// transport failures collapse to a generic network message.
func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), apperrors.IsTimeout(err):
		return errMsgTimeout
	case errors.Is(err, context.Canceled), apperrors.IsCanceled(err):
		return errMsgCanceled
	case apperrors.IsUnavailable(err):
		return apperrors.UserMessage(err, errMsgNoNetwork)
	default:
		return apperrors.UserMessage(err, errMsgGeneric)
	}
}
