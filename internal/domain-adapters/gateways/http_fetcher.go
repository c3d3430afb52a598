package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ochairo/pkgbump/internal/domain/interfaces"
)

const (
	// DefaultAttempts is the number of tries per upstream request
	DefaultAttempts = 3
	// DefaultRetryDelay is the fixed pause between attempts
	DefaultRetryDelay = 5 * time.Second
	// DefaultMetadataTimeout bounds version and recipe lookups
	DefaultMetadataTimeout = 30 * time.Second
	// DefaultArtifactTimeout bounds artifact downloads
	DefaultArtifactTimeout = 10 * time.Minute
	// DefaultUserAgent identifies requests that set no agent of their own
	DefaultUserAgent = "pkgbump/1.0"

	// maxDocumentSize bounds metadata bodies; recipes and release feeds are small
	maxDocumentSize = 8 * 1024 * 1024
)

// HTTPFetcher issues GET requests with a fixed-delay retry policy
type HTTPFetcher struct {
	client     *http.Client
	attempts   int
	retryDelay time.Duration
	userAgent  string
	logger     interfaces.Logger
}

// FetcherOption configures an HTTPFetcher
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithTimeout sets the per-request timeout of the default client
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = &http.Client{Timeout: timeout}
	}
}

// WithRetry sets the attempt count and the delay between attempts
func WithRetry(attempts int, delay time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if attempts > 0 {
			f.attempts = attempts
		}
		if delay >= 0 {
			f.retryDelay = delay
		}
	}
}

// WithUserAgent sets the default User-Agent header
func WithUserAgent(userAgent string) FetcherOption {
	return func(f *HTTPFetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

// WithLogger sets the logger used for retry diagnostics
func WithLogger(logger interfaces.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates a fetcher with metadata defaults
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:     &http.Client{Timeout: DefaultMetadataTimeout},
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
		userAgent:  DefaultUserAgent,
		logger:     &interfaces.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Attempts returns how many times Retry calls its function at most
func (f *HTTPFetcher) Attempts() int {
	return f.attempts
}

// permanentError marks a failure that retrying cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent wraps err so Retry gives up immediately
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn until it succeeds, returns a permanent error, or the
// attempts run out. The pause between attempts honors ctx cancellation.
func (f *HTTPFetcher) Retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			f.logger.Debug("retrying",
				interfaces.F("operation", op),
				interfaces.F("attempt", attempt),
				interfaces.F("delay", f.retryDelay.String()))
			if err := sleepContext(ctx, f.retryDelay); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return fmt.Errorf("%s: %w", op, perm.err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}

		f.logger.Debug("attempt failed",
			interfaces.F("operation", op),
			interfaces.F("attempt", attempt),
			interfaces.F("error", lastErr.Error()))
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, f.attempts, lastErr)
}

// Response is a completed GET request
type Response struct {
	FinalURL   string // After redirects
	StatusCode int
	Header     http.Header
	Body       []byte // Nil unless the body was requested
}

// Get performs a single GET. Retryable statuses (403, 429, 5xx) come back as
// plain errors; any other non-200 status is permanent.
func (f *HTTPFetcher) Get(ctx context.Context, url string, headers map[string]string, readBody bool) (*Response, error) {
	resp, err := f.Open(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	out := &Response{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	if readBody {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		out.Body = body
	}
	return out, nil
}

// Open performs a single GET and returns the response with an unread body
// for streaming. The caller closes the body.
func (f *HTTPFetcher) Open(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	f.checkRateLimit(resp)

	if resp.StatusCode != http.StatusOK {
		//nolint:errcheck,gosec // G104: Best effort close on error status
		resp.Body.Close()
		statusErr := fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
		if isRetryableError(resp.StatusCode) {
			return nil, statusErr
		}
		return nil, permanent(statusErr)
	}

	return resp, nil
}

// isRetryableError checks if an HTTP status code is retryable
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusForbidden, // 403 - rate limit
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// checkRateLimit warns when GitHub style rate limit headers run low
func (f *HTTPFetcher) checkRateLimit(resp *http.Response) {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return
	}
	n, err := strconv.Atoi(remaining)
	if err != nil || n > 10 {
		return
	}

	fields := []interfaces.Field{interfaces.F("remaining", n)}
	if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		fields = append(fields, interfaces.F("resets_at", time.Unix(reset, 0).UTC().Format(time.RFC3339)))
	}
	f.logger.Warn("API rate limit low", fields...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
