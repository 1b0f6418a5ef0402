// Package mensaapi is a read-only client for the Meine Mensa JSON API.
//
// Two endpoints are used:
//   - GET /food_plans?date_from=&date_to=[&location_id=] returns food plan
//     entries for a date window plus a code->label metadata block.
//   - GET /locations returns all known cafeteria locations.
//
// All calls go through a circuit breaker so a failing upstream is not
// hammered by the intraday refresh schedule.
package mensaapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public Meine Mensa API root.
const DefaultBaseURL = "https://meine-mensa.de/api"

// maxBodyBytes caps upstream response bodies.
const maxBodyBytes = 32 << 20

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the upstream API.
type Client struct {
	baseURL string
	http    HTTPDoer
	cb      *gobreaker.CircuitBreaker[[]byte]
	name    string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h HTTPDoer) Option {
	return func(c *Client) { c.http = h }
}

// WithBreakerSettings replaces the default circuit breaker settings.
// Name and OnStateChange are always overridden.
func WithBreakerSettings(s gobreaker.Settings) Option {
	return func(c *Client) { c.cb = newBreaker(c.name, s) }
}

// NewClient builds a Client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		name:    "meine-mensa-api",
	}
	c.cb = newBreaker(c.name, defaultBreakerSettings())
	for _, o := range opts {
		o(c)
	}
	return c
}

// FoodPlans fetches entries dated between from and to (inclusive, YYYY-MM-DD).
// locationID == 0 fetches all locations.
func (c *Client) FoodPlans(ctx context.Context, from, to string, locationID int) (*FoodPlanResponse, error) {
	q := url.Values{}
	q.Set("date_from", from)
	q.Set("date_to", to)
	if locationID > 0 {
		q.Set("location_id", strconv.Itoa(locationID))
	}

	var out FoodPlanResponse
	if err := c.getJSON(ctx, "/food_plans?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Locations fetches all cafeteria locations.
func (c *Client) Locations(ctx context.Context) ([]Location, error) {
	var out []Location
	if err := c.getJSON(ctx, "/locations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	ctx, span := otel.Tracer("mensaapi").Start(ctx, "GET "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("upstream", c.name)),
	)
	defer span.End()

	body, err := c.execute(func() ([]byte, error) { return c.get(ctx, c.baseURL+path) })
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "upstream request failed: " + e.Status
}
