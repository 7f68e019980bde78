// Package maps is the Google Maps Platform client: geocoding,
// traffic-aware directions durations, and static map URLs.
package maps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"drivetime/internal/core"
	"drivetime/internal/ratelimit"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api"

	geocodePath    = "/geocode/json"
	directionsPath = "/directions/json"
	staticMapPath  = "/staticmap"

	// maxResponseSize bounds how much of an upstream body we read.
	maxResponseSize = 1 << 20
	// maxGeocodeCandidates caps how many candidates Geocode returns.
	maxGeocodeCandidates = 5
)

// ErrMissingKey indicates the client was built without an API key.
var ErrMissingKey = errors.New("missing Google Maps API key")

// ClientConfig configures a Client. The key is explicit here; there is
// no package-level key state.
type ClientConfig struct {
	Key string
	// QPS caps upstream queries per second; zero disables pacing.
	QPS int
	// BaseURL overrides the API host, used by tests.
	BaseURL string
	// HTTPClient overrides the transport; defaults to a 30s-timeout client.
	HTTPClient *http.Client
}

// Client calls the Google Maps web services. Safe for concurrent use.
type Client struct {
	key        string
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Key == "" {
		return nil, ErrMissingKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		key:        cfg.Key,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		limiter:    ratelimit.New(cfg.QPS),
	}, nil
}

// Geocode resolves a textual place to up to five candidates.
func (c *Client) Geocode(ctx context.Context, query string) ([]core.Place, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", c.key)

	body, ferr := c.get(ctx, geocodePath, params)
	if ferr != nil {
		return nil, fmt.Errorf("geocoding %q: %w", query, ferr)
	}

	status := gjson.GetBytes(body, "status").String()
	if status != "OK" && status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("geocoding %q failed: %s", query, status)
	}

	var places []core.Place
	for _, res := range gjson.GetBytes(body, "results").Array() {
		if len(places) == maxGeocodeCandidates {
			break
		}
		places = append(places, core.Place{
			Query:            query,
			FormattedAddress: res.Get("formatted_address").String(),
			Location: core.LatLng{
				Lat: res.Get("geometry.location.lat").Float(),
				Lng: res.Get("geometry.location.lng").Float(),
			},
			PlaceID: res.Get("place_id").String(),
		})
	}
	return places, nil
}

// DurationInTraffic returns the driving duration between origin and
// destination departing at the given time under the given traffic
// model. Failures are classified for the orchestrator's retry decision.
func (c *Client) DurationInTraffic(ctx context.Context, origin, dest core.LatLng, departure time.Time, model core.TrafficModel) (time.Duration, *core.FetchError) {
	params := url.Values{}
	params.Set("origin", origin.String())
	params.Set("destination", dest.String())
	params.Set("mode", "driving")
	params.Set("departure_time", strconv.FormatInt(departure.Unix(), 10))
	params.Set("traffic_model", model.String())
	params.Set("key", c.key)

	body, ferr := c.get(ctx, directionsPath, params)
	if ferr != nil {
		return 0, ferr
	}

	status := gjson.GetBytes(body, "status").String()
	if status != "OK" {
		msg := gjson.GetBytes(body, "error_message").String()
		return 0, core.Errf(classifyAPIStatus(status), status, "directions failed: %s", msg)
	}

	leg := gjson.GetBytes(body, "routes.0.legs.0")
	if !leg.Exists() {
		return 0, core.Errf(core.KindNotFound, status, "no route between %s and %s", origin, dest)
	}
	// duration_in_traffic is only present for departure times the API
	// can model; fall back to the plain duration.
	seconds := leg.Get("duration_in_traffic.value")
	if !seconds.Exists() {
		seconds = leg.Get("duration.value")
	}
	if !seconds.Exists() {
		return 0, core.Errf(core.KindServerError, status, "response missing duration")
	}
	return time.Duration(seconds.Int()) * time.Second, nil
}

// StaticMapURL returns a static map URL with origin/destination markers.
func (c *Client) StaticMapURL(origin, dest core.LatLng) string {
	params := url.Values{}
	params.Set("size", "640x400")
	params.Set("scale", "2")
	params.Set("maptype", "roadmap")
	params.Add("markers", "color:green|label:S|"+origin.String())
	params.Add("markers", "color:red|label:E|"+dest.String())
	params.Set("key", c.key)
	return c.baseURL + staticMapPath + "?" + params.Encode()
}

// SaveStaticMap downloads a static map image to path.
func (c *Client) SaveStaticMap(ctx context.Context, mapURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mapURL, nil)
	if err != nil {
		return fmt.Errorf("building map request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching map: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching map: %s", resp.Status)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// get performs one paced GET and returns the body, classifying
// transport and HTTP-level failures.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, *core.FetchError) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, core.Errf(core.KindTimeout, "", "rate limiter: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, core.Errf(core.KindMalformedRequest, "", "building request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, core.Errf(core.KindTimeout, "", "%v", err)
		}
		return nil, core.Errf(core.KindServerError, "", "%v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, core.Errf(core.KindServerError, resp.Status, "reading response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.Errf(classifyHTTPStatus(resp.StatusCode), resp.Status, "unexpected status")
	}
	return body, nil
}

func classifyHTTPStatus(code int) core.FailureKind {
	switch {
	case code == http.StatusTooManyRequests:
		return core.KindRateLimited
	case code == http.StatusNotFound:
		return core.KindNotFound
	case code == http.StatusForbidden, code == http.StatusUnauthorized:
		return core.KindPermissionDenied
	case code >= 500:
		return core.KindServerError
	default:
		return core.KindMalformedRequest
	}
}

func classifyAPIStatus(status string) core.FailureKind {
	switch status {
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "RESOURCE_EXHAUSTED":
		return core.KindRateLimited
	case "UNKNOWN_ERROR":
		return core.KindServerError
	case "NOT_FOUND", "ZERO_RESULTS":
		return core.KindNotFound
	case "REQUEST_DENIED":
		return core.KindPermissionDenied
	default:
		return core.KindMalformedRequest
	}
}

// Route binds the client to one origin/destination pair, yielding a
// core.Fetcher for the orchestrator.
type Route struct {
	client *Client
	origin core.LatLng
	dest   core.LatLng
}

func (c *Client) Route(origin, dest core.LatLng) *Route {
	return &Route{client: c, origin: origin, dest: dest}
}

// Fetch performs one duration lookup for the route. The duration is
// reported in minutes rounded to one decimal, matching the report
// granularity downstream.
func (r *Route) Fetch(ctx context.Context, task core.Task) core.Result {
	start := time.Now()
	d, ferr := r.client.DurationInTraffic(ctx, r.origin, r.dest, task.Departure, task.Model)
	res := core.Result{Task: task, Duration: time.Since(start)}
	if ferr != nil {
		res.Err = ferr
		return res
	}
	res.Minutes = math.Round(d.Minutes()*10) / 10
	return res
}
