// Package tfe is the HTTP transport and resource layer for the HCP Terraform
// and Terraform Enterprise v2 API.
//
// Every request passes through a single Client, which bounds how many calls
// are in flight, retries rate limits and network blips with jittered
// exponential backoff, and classifies each response into a Result.
package tfe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/jitter"
	"github.com/Rican7/retry/strategy"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/mattjoyce/hcpctl/internal/log"
	"github.com/mattjoyce/hcpctl/internal/observability"
)

const (
	// MediaType is the JSON:API content type used for every request.
	MediaType = "application/vnd.api+json"

	apiPrefix       = "/api/v2"
	maxBodyBytes    = 64 << 20
	maxBackoffDelay = 30 * time.Second
)

// Config holds the transport settings.
type Config struct {
	Host          string
	Token         string
	BaseURL       string // overrides https://<Host>, used by tests
	Timeout       time.Duration
	MaxConcurrent int
	MaxAttempts   int
	BackoffBase   time.Duration
	Parallelism   int
	PageSize      int
	UserAgent     string
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 250 * time.Millisecond
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 8
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		c.PageSize = 100
	}
	if c.UserAgent == "" {
		c.UserAgent = "hcpctl"
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = log.WithComponent("tfe")
	}
}

// Client issues authenticated requests against one host.
type Client struct {
	cfg     Config
	baseURL *url.URL
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

// New builds a Client. Host or BaseURL must be set.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	raw := cfg.BaseURL
	if raw == "" {
		if cfg.Host == "" {
			return nil, &ValidationError{Field: "host", Message: "no host configured"}
		}
		raw = "https://" + cfg.Host
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Host == "" {
		return nil, &ValidationError{Field: "host", Message: fmt.Sprintf("cannot parse %q as a base URL", raw)}
	}
	if cfg.Host == "" {
		cfg.Host = base.Host
	}
	return &Client{
		cfg:     cfg,
		baseURL: base,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		logger:  cfg.Logger,
	}, nil
}

// Host returns the configured host name.
func (c *Client) Host() string { return c.cfg.Host }

// Parallelism returns the fan-out width for multi-tenant listings.
func (c *Client) Parallelism() int { return c.cfg.Parallelism }

// Request describes one logical API call. Path is either relative to
// /api/v2 or an absolute URL such as a log-read-url.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	Resource string
	// Idempotent marks a POST or PATCH as safe to resend after a network
	// failure. Other methods are always treated as idempotent.
	Idempotent bool
}

// replayable reports whether the request may be resent when an earlier
// attempt could have reached the server. Rate-limited responses are always
// resent since the server did not act on them.
func (r Request) replayable() bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch:
		return r.Idempotent
	}
	return true
}

func (r Request) resourceName() string {
	if r.Resource != "" {
		return r.Resource
	}
	return r.Path
}

// Send performs the request with retries and returns the classified Result.
// Only transport failures and context cancellation are returned as errors;
// HTTP failures are reported through Result.Kind.
func (c *Client) Send(ctx context.Context, req Request) (*Result, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	target, err := c.resolve(req)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.resourceName(), err)
		}
	}

	var (
		result   *Result
		fatal    error
		netErr   error
		attempts int
	)
	// math/rand sources are not safe for concurrent use.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	action := func(attempt uint) error {
		attempts = int(attempt)
		res, err := c.attempt(ctx, req.Method, target, payload, attempts)
		if err != nil {
			if ctx.Err() != nil || !isTransient(err) {
				fatal = err
				return nil
			}
			if !req.replayable() && !neverSent(err) {
				fatal = fmt.Errorf("%w: %w", ErrOutcomeUnknown, err)
				return nil
			}
			netErr = err
			result = nil
			c.logger.Debug("transient network error", "resource", req.resourceName(), "attempt", attempts, "error", err)
			return err
		}
		netErr = nil
		result = res
		if res.Kind == KindRateLimited {
			c.logger.Debug("rate limited", "resource", req.resourceName(), "attempt", attempts, "retry_after", res.RetryAfter)
			return errRateLimited
		}
		return nil
	}

	_ = retry.Retry(action,
		strategy.Limit(uint(c.cfg.MaxAttempts)),
		c.waitStrategy(ctx, rng, func() time.Duration {
			if result != nil {
				return result.RetryAfter
			}
			return 0
		}),
	)

	switch {
	case fatal != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request %s: %w", req.resourceName(), fatal)
	case result != nil:
		result.Attempts = attempts
		return result, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, fmt.Errorf("request %s after %d attempts: %w", req.resourceName(), attempts, netErr)
	}
}

// Do sends the request and decodes a successful body into out, which may be
// nil. Non-success results become typed errors.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	res, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if err := res.Err(req.resourceName()); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(res.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.resourceName(), err)
	}
	return nil
}

var errRateLimited = errors.New("rate limited")

// waitStrategy sleeps between attempts with full-jitter exponential backoff,
// stretched to any Retry-After the server sent, and stops early when ctx is
// done.
func (c *Client) waitStrategy(ctx context.Context, rng *rand.Rand, retryAfter func() time.Duration) strategy.Strategy {
	algorithm := backoff.Exponential(c.cfg.BackoffBase, 2)
	transform := jitter.Full(rng)
	return func(attempt uint) bool {
		if attempt == 0 {
			return true
		}
		delay := transform(algorithm(attempt - 1))
		if ra := retryAfter(); ra > delay {
			delay = ra
		}
		if delay > maxBackoffDelay {
			delay = maxBackoffDelay
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		}
	}
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte, attempt int) (*Result, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	requestID := uuid.NewString()
	ctx, span := observability.StartSpan(ctx, "tfe.request",
		attribute.String("http.request.method", method),
		attribute.String("url.path", redactQuery(target)),
		attribute.Int("http.request.resend_count", attempt-1),
		attribute.String("hcpctl.request_id", requestID),
	)
	res, err := c.roundTrip(ctx, method, target, payload, requestID)
	if res != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", res.Status))
	}
	observability.EndSpan(span, err)
	return res, err
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte, requestID string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", MediaType)
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", MediaType)
	}
	if c.cfg.Token != "" && c.sameHost(httpReq.URL) {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	start := time.Now()
	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("http request",
		"method", method,
		"url", redactQuery(target),
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return classify(resp.StatusCode, resp.Header, data), nil
}

// resolve turns the request path into an absolute URL.
func (c *Client) resolve(req Request) (string, error) {
	var u *url.URL
	if strings.HasPrefix(req.Path, "http://") || strings.HasPrefix(req.Path, "https://") {
		parsed, err := url.Parse(req.Path)
		if err != nil {
			return "", fmt.Errorf("parse url for %s: %w", req.resourceName(), err)
		}
		u = parsed
	} else {
		u = &url.URL{
			Scheme: c.baseURL.Scheme,
			Host:   c.baseURL.Host,
			Path:   strings.TrimRight(c.baseURL.Path, "/") + apiPrefix + "/" + strings.TrimLeft(req.Path, "/"),
		}
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// sameHost keeps the bearer token off pre-signed URLs served from other
// hosts.
func (c *Client) sameHost(u *url.URL) bool {
	return strings.EqualFold(u.Host, c.baseURL.Host)
}

func redactQuery(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}

// neverSent reports whether err proves the request never left this host.
func neverSent(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// per-attempt timeout
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
