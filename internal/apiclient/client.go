// Package apiclient talks to the clinic REST API.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/birthcare-portal/pkg/circuitbreaker"
	"github.com/jwalitptl/birthcare-portal/pkg/metrics"
)

const (
	genericErrorMessage = "Something went wrong. Please try again."
	fieldErrorsMessage  = "Please correct the highlighted fields."
	networkMessage      = "Unable to reach the server. Check your connection and try again."
	unavailableMessage  = "The server is temporarily unavailable. Please try again shortly."
)

// ErrServer marks a 5xx answer so the circuit breaker can count it.
var ErrServer = errors.New("server error")

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RetryCount      int
	RetryWait       time.Duration
	RetryMaxWait    time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration
}

type Client struct {
	http    *resty.Client
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     zerolog.Logger
}

type tokenKey struct{}

// WithToken attaches the signed-in user's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

func New(cfg Config, log zerolog.Logger, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		// Reads are retried; writes are left to the user to re-trigger.
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "clinic-api",
		MaxFailures: cfg.BreakerFailures,
		Timeout:     cfg.BreakerTimeout,
		IsFailure: func(err error) bool {
			return !errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		http:    client,
		breaker: breaker,
		metrics: m,
		log:     log,
	}
}

// do sends one request. A non-nil response is returned whenever the server answered,
// including 5xx answers that also yield ErrServer.
func (c *Client) do(ctx context.Context, resource, method, path string, body interface{}, query url.Values) (*resty.Response, error) {
	start := time.Now()
	var resp *resty.Response

	err := c.breaker.Execute(func() error {
		req := c.http.R().SetContext(ctx)
		if tok := TokenFrom(ctx); tok != "" {
			req.SetAuthToken(tok)
		}
		if body != nil {
			req.SetBody(body)
		}
		if len(query) > 0 {
			req.SetQueryParamsFromValues(query)
		}

		var err error
		resp, err = req.Execute(method, path)
		if err != nil {
			return err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s %s: %s", ErrServer, method, path, resp.Status())
		}
		return nil
	})

	outcome := "ok"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		outcome = "breaker_open"
	case err != nil:
		outcome = "error"
	case resp.StatusCode() >= http.StatusBadRequest:
		outcome = "rejected"
	}
	c.metrics.ObserveAPI(resource, method, outcome, time.Since(start))

	if err != nil {
		c.log.Warn().Err(err).
			Str("resource", resource).
			Str("method", method).
			Str("path", path).
			Msg("clinic API call failed")
	}
	return resp, err
}

// failure converts a transport-level failure into a user-facing message.
func failure(resp *resty.Response, err error) (int, string) {
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		return 0, unavailableMessage
	case resp != nil && resp.StatusCode() >= http.StatusInternalServerError:
		if msg := parseError(resp.Body()).Message; msg != "" {
			return resp.StatusCode(), msg
		}
		return resp.StatusCode(), genericErrorMessage
	default:
		return 0, networkMessage
	}
}

// Ready fails while the circuit breaker is rejecting calls.
func (c *Client) Ready(ctx context.Context) error {
	if c.breaker.State() == circuitbreaker.StateOpen {
		return circuitbreaker.ErrOpen
	}
	return ctx.Err()
}
