// Package darahapi is the HTTP client for the DarahConnect REST API: paged list fetches with
// envelope normalization, and the status, read-state, delete, and create mutations.
package darahapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

const (
	// DefaultBaseURL is the API root used when none is configured.
	DefaultBaseURL = "http://localhost:5000/api"
	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 8 << 20
)

// RequestObserver receives the outcome of every upstream request.
type RequestObserver interface {
	ObserveRequest(method, path string, status int, d time.Duration, err error)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Token is used when the request context carries no session.
	Token string
	// RateLimit is the sustained request rate per second; zero disables throttling.
	RateLimit float64
	Burst     int
	// HTTPClient overrides the transport; its Timeout is left untouched.
	HTTPClient *http.Client
	Observer   RequestObserver
	Logger     *slog.Logger
}

// Client talks to the DarahConnect API. It is safe for concurrent use.
type Client struct {
	base     *url.URL
	http     *http.Client
	token    string
	limiter  *rate.Limiter
	observer RequestObserver
	logger   *slog.Logger
}

var _ core.Mutator = (*Client)(nil)

// NewClient creates a Client.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must be http or https", raw)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:     base,
		http:     hc,
		token:    strings.TrimSpace(opts.Token),
		limiter:  rate.NewLimiter(limit, burst),
		observer: opts.Observer,
		logger:   logger.With("component", "darahapi"),
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.base.String() }

// Ping checks that the API host answers HTTP. Any response below 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("darahconnect api unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("darahconnect api returned %d", resp.StatusCode)
	}
	return nil
}

// UpdateStatus sends PUT {path}/{id}/status.
func (c *Client) UpdateStatus(ctx context.Context, resource, id, status string) error {
	p, err := itemPath(resource, id)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodPut, p+"/status", nil, map[string]string{"status": status})
	return err
}

// SetRead sends PUT {path}/{id} with the read flag.
func (c *Client) SetRead(ctx context.Context, resource, id string, read bool) error {
	p, err := itemPath(resource, id)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodPut, p, nil, map[string]bool{"is_read": read})
	return err
}

// Delete sends DELETE {path}/{id}.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	p, err := itemPath(resource, id)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodDelete, p, nil, nil)
	return err
}

// Create sends POST {path} with payload as JSON.
func (c *Client) Create(ctx context.Context, resource string, payload any) error {
	d, ok := Lookup(resource)
	if !ok {
		return apperrors.Validationf("unknown resource %q", resource)
	}
	_, err := c.send(ctx, http.MethodPost, d.Path, nil, payload)
	return err
}

func itemPath(resource, id string) (string, error) {
	d, ok := Lookup(resource)
	if !ok {
		return "", apperrors.Validationf("unknown resource %q", resource)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.Validation("an item id is required")
	}
	return d.Path + "/" + url.PathEscape(id), nil
}

// send performs one request and returns the raw 2xx body. Failures are classified as
// apperrors wrapping an *APIError.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	start := time.Now()
	status, body, err := c.roundTrip(ctx, method, path, query, payload)
	if c.observer != nil {
		c.observer.ObserveRequest(method, path, status, time.Since(start), err)
	}
	if err != nil {
		c.logger.DebugContext(ctx, "upstream request failed",
			"method", method, "path", path, "status", status, "error", err)
	}
	return body, err
}

func (c *Client) roundTrip(
	ctx context.Context,
	method, path string,
	query url.Values,
	payload any,
) (int, []byte, error) {
	fail := func(kind ErrorKind, status int, msg string, cause error) (int, []byte, error) {
		return status, nil, toAppError(&APIError{
			Kind: kind, Status: status, Method: method, Path: path, Message: msg, Err: cause,
		})
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return c.contextOr(ctx, fail, err)
	}

	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid request payload")
		}
		reqBody = bytes.NewReader(buf)
	}

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenFor(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.contextOr(ctx, fail, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(KindTransport, resp.StatusCode, networkErrorMessage, err)
	}

	var (
		decoded   any
		decodeErr error
	)
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &decoded)
	}
	env, _ := decoded.(map[string]any)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(KindApplication, resp.StatusCode, errorMessage(env, resp.StatusCode), nil)
	}
	if decodeErr != nil {
		return fail(KindDecode, resp.StatusCode, "Invalid response from server", decodeErr)
	}
	if ok, present := env["success"].(bool); present && !ok {
		return fail(KindApplication, resp.StatusCode, errorMessage(env, 0), nil)
	}
	return resp.StatusCode, raw, nil
}

// contextOr reports cancellation as such and any other failure as a transport error.
func (c *Client) contextOr(
	ctx context.Context,
	fail func(ErrorKind, int, string, error) (int, []byte, error),
	err error,
) (int, []byte, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return 0, nil, apperrors.Wrap(ctxErr, apperrors.ErrCodeTimeout, "Request timed out")
		}
		return 0, nil, apperrors.Wrap(ctxErr, apperrors.ErrCodeCanceled, "Request canceled")
	}
	return fail(KindTransport, 0, networkErrorMessage, err)
}

func (c *Client) tokenFor(ctx context.Context) string {
	if s := model.SessionFrom(ctx); s != nil && s.Token != "" {
		return s.Token
	}
	return c.token
}
