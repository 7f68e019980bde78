package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"drivetime/internal/config"
	"drivetime/internal/logging"
	"drivetime/internal/maps"
)

// newTestServer wires a Server against a fake upstream maps API.
func newTestServer(t *testing.T, upstream http.Handler) *Server {
	t.Helper()
	fake := httptest.NewServer(upstream)
	t.Cleanup(fake.Close)

	client, err := maps.NewClient(maps.ClientConfig{Key: "test-key", BaseURL: fake.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	svc := NewService(client, config.FetchConfig{InitialConcurrency: 4})
	return NewServer(svc, logging.NewWriter(&strings.Builder{}))
}

func okDirections(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `{"status":"OK","routes":[{"legs":[{"duration_in_traffic":{"value":1800}}]}]}`)
}

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(okDirections))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestSeries_OK(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(okDirections))

	rec := postJSON(t, srv, "/v1/series", `{
		"origin": {"lat": 37.77, "lng": -122.42},
		"destination": {"lat": 37.33, "lng": -121.89},
		"date": "2025-06-02",
		"start": "07:00",
		"end": "08:00",
		"interval_minutes": 30,
		"tz": "UTC"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp SeriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.RunID == "" {
		t.Error("missing run_id")
	}
	// 3 grid points x 2 models.
	if resp.Coverage.TotalTasks != 6 || resp.Coverage.Fetched != 6 {
		t.Errorf("coverage = %+v, want 6/6", resp.Coverage)
	}
	if resp.Coverage.RoundsUsed != 1 {
		t.Errorf("rounds = %d, want 1", resp.Coverage.RoundsUsed)
	}
	if len(resp.Series.Points) != 3 {
		t.Errorf("series has %d points, want 3", len(resp.Series.Points))
	}
}

func TestSeries_InvalidWindow(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(okDirections))

	rec := postJSON(t, srv, "/v1/series", `{
		"date": "2025-06-02", "start": "09:00", "end": "07:00",
		"interval_minutes": 15, "tz": "UTC"
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSeries_BadJSON(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(okDirections))
	if rec := postJSON(t, srv, "/v1/series", "{"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSeries_NoUsableData(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"bad key"}`)
	}))

	rec := postJSON(t, srv, "/v1/series", `{
		"date": "2025-06-02", "start": "07:00", "end": "07:30",
		"interval_minutes": 30, "tz": "UTC"
	}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502, body %s", rec.Code, rec.Body.String())
	}
}

func TestGeocode(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","results":[{"formatted_address":"Somewhere","geometry":{"location":{"lat":1,"lng":2}}}]}`)
	}))

	rec := postJSON(t, srv, "/v1/geocode", `{"query":"somewhere"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Somewhere") {
		t.Errorf("body missing candidate: %s", rec.Body.String())
	}
}

func TestGeocode_RequiresQuery(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(okDirections))
	if rec := postJSON(t, srv, "/v1/geocode", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStaticMap(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(okDirections))

	rec := postJSON(t, srv, "/v1/staticmap", `{
		"origin": {"lat": 1, "lng": 2},
		"destination": {"lat": 3, "lng": 4}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.Contains(resp["url"], "staticmap") {
		t.Errorf("url = %q", resp["url"])
	}
}
