package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/wx-forecast/internal/logger"
	"github.com/i474232898/wx-forecast/internal/weather"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxFailures = 5
	defaultOpenTimeout = 2 * time.Minute
	maxBodyBytes       = 32 << 20
)

// ClientConfig bundles HTTP client and resilience settings.
type ClientConfig struct {
	// Name labels the circuit breaker in logs.
	Name string
	// HTTP is the underlying client. A client with a 30s timeout is used when nil.
	HTTP *http.Client
	// MaxConsecutiveFailures trips the breaker. Zero selects 5.
	MaxConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// RequestsPerSecond spaces out requests; zero disables limiting.
	RequestsPerSecond float64
	UserAgent         string
	Logger            *logger.Logger
}

var (
	errCircuitOpen = errors.New("circuit breaker open")
	errBadStatus   = errors.New("unexpected status code")
)

// Client is a weather.Transport backed by net/http. Requests are never
// retried; consecutive failures trip a circuit breaker that short-circuits
// later calls until it half-opens.
type Client struct {
	http      *http.Client
	circuit   *gobreaker.CircuitBreaker
	limiter   *rate.Limiter
	userAgent string
	log       *logger.Logger
}

var _ weather.Transport = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	maxFailures := cfg.MaxConsecutiveFailures
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}
	name := cfg.Name
	if name == "" {
		name = "weather"
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		http:      httpClient,
		circuit:   cb,
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

// Fetch performs one GET of endpoint with params appended as a query string.
// Any received response is returned with a nil error, whatever its status;
// the error is non-nil only when no response was obtained.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (*weather.RawResponse, error) {
	target := buildURL(endpoint, params)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	// Non-200 responses count as breaker failures but are still handed back.
	var received *weather.RawResponse
	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}

		res := &weather.RawResponse{URL: target, StatusCode: resp.StatusCode, Body: body}
		if resp.StatusCode != http.StatusOK {
			received = res
			return nil, fmt.Errorf("%w: %d", errBadStatus, resp.StatusCode)
		}
		return res, nil
	})

	if err == nil {
		res, ok := result.(*weather.RawResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected result type from circuit breaker")
		}
		c.log.Debugw("fetched", "url", target, "status", res.StatusCode, "bytes", len(res.Body))
		return res, nil
	}

	if errors.Is(err, errBadStatus) && received != nil {
		c.log.Warnw("non-200 response", "url", target, "status", received.StatusCode)
		return received, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	return nil, err
}

func buildURL(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + params.Encode()
}
