// Package osrm estimates driving time with an OSRM routing server.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/pkg/metrics"
)

// Default client configuration constants.
const (
	DefaultBaseURL = "http://router.project-osrm.org"
	defaultProfile = "driving"
	defaultTimeout = 10 * time.Second
	codeOK         = "Ok"
)

// Sentinel kinds for routing errors.
var (
	ErrNoRoute  = errors.New("no route found")
	ErrUpstream = errors.New("osrm request failed")
)

type routeResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []route `json:"routes"`
}

type route struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithProfile sets the routing profile, e.g. driving or foot.
func WithProfile(profile string) Option {
	return func(cl *Client) {
		if profile != "" {
			cl.profile = profile
		}
	}
}

// Client implements travel.Estimator against the OSRM route service.
type Client struct {
	baseURL string
	profile string
	http    *http.Client
}

// NewClient creates an OSRM client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: defaultProfile,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Estimate implements travel.Estimator.
func (c *Client) Estimate(ctx context.Context, origin, destination model.Point) (model.TravelSample, error) {
	r, err := c.route(ctx, origin, destination)
	if err != nil {
		metrics.RecordTravelEstimateError("osrm")
		return model.TravelSample{}, err
	}
	return model.TravelSample{DistanceMeters: r.Distance, DurationSeconds: r.Duration}, nil
}

func (c *Client) route(ctx context.Context, origin, destination model.Point) (*route, error) {
	// coordinates are lng,lat pairs
	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=false&alternatives=false&steps=false",
		c.baseURL, c.profile,
		origin.Lng, origin.Lat,
		destination.Lng, destination.Lat,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body routeResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		// OSRM reports NoRoute and friends with a 400 and a JSON code
		if decodeErr == nil && body.Code != "" && body.Code != codeOK {
			return nil, fmt.Errorf("%w: %s: %s", ErrNoRoute, body.Code, body.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUpstream, decodeErr)
	}
	if body.Code != codeOK || len(body.Routes) == 0 {
		return nil, fmt.Errorf("%w: code %q", ErrNoRoute, body.Code)
	}
	return &body.Routes[0], nil
}
