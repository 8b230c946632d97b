package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/star/issblh/internal/auth"
	"github.com/star/issblh/internal/eop"
	"github.com/star/issblh/internal/ephemeris"
	"github.com/star/issblh/internal/health"
	"github.com/star/issblh/internal/propagation"
	"github.com/star/issblh/internal/timescale"
	"github.com/star/issblh/internal/tle"
)

const (
	issLine1 = "1 25544U 98067A   21147.51562500  .00001264  00000-0  31275-4 0  9994"
	issLine2 = "2 25544  51.6435  94.3410 0003404  21.4512 101.3276 15.48949830285526"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func issStore(t *testing.T) *tle.Store {
	t.Helper()
	ds, err := tle.Load([]byte("ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n"), "test",
		time.Date(2021, 5, 27, 18, 0, 0, 0, time.UTC), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	store := tle.NewStore()
	store.Set(ds)
	return store
}

func eopTable(t *testing.T) *eop.Table {
	t.Helper()
	table, err := eop.Load(strings.NewReader("date,pm_x,pm_y,dut1,lod\n" +
		"2021-05-27,0.1546,0.4153,-0.1789,0.0003\n" +
		"2021-05-28,0.1561,0.4149,-0.1791,0.0002\n"))
	if err != nil {
		t.Fatal(err)
	}
	return table
}

// testServer builds the full handler chain around an ISS generator.
func testServer(t *testing.T, authCfg auth.Config, ready ...health.Check) http.Handler {
	t.Helper()
	store := issStore(t)
	gen := ephemeris.NewGenerator(store, eopTable(t), ephemeris.Config{Workers: 2, MaxCount: 100}, testLogger())
	return newHandler(Config{Auth: authCfg}, testLogger(), gen, store, ready...)
}

func get(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return body
}

func TestPosition(t *testing.T) {
	h := testServer(t, auth.Config{})

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"rfc3339", "?t=2021-05-27T13:00:00Z", http.StatusOK},
		{"jst digits", "?t=20210527220000", http.StatusOK},
		{"with observer", "?t=2021-05-27T13:00:00Z&observer=35.68,139.77,40", http.StatusOK},
		{"bad time", "?t=yesterday", http.StatusBadRequest},
		{"bad observer", "?t=2021-05-27T13:00:00Z&observer=north", http.StatusBadRequest},
		{"bad format", "?t=2021-05-27T13:00:00Z&format=xml", http.StatusBadRequest},
		{"eop out of range", "?t=2021-06-10T00:00:00Z", http.StatusRequestedRangeNotSatisfiable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(h, "/api/v1/position"+tt.query)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			body := decodeBody(t, w)
			if tt.wantStatus != http.StatusOK {
				if body["error"] == nil {
					t.Error("expected error field in response")
				}
				return
			}
			geo, ok := body["geodetic"].(map[string]any)
			if !ok {
				t.Fatalf("missing geodetic in %v", body)
			}
			if height := geo["height_m"].(float64); height < 350_000 || height > 460_000 {
				t.Errorf("height = %.0f m", height)
			}
			if strings.Contains(tt.query, "observer") && body["look"] == nil {
				t.Error("expected look angles for observer")
			}
		})
	}
}

func TestPositionFormats(t *testing.T) {
	h := testServer(t, auth.Config{})

	w := get(h, "/api/v1/position?t=2021-05-27T13:00:00Z&format=text")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "WGS84(BLH):") {
		t.Errorf("text body missing BLH block:\n%s", w.Body.String())
	}

	w = get(h, "/api/v1/position?t=2021-05-27T13:00:00Z&format=yaml")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/yaml" {
		t.Fatalf("yaml: status = %d, Content-Type = %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "geodetic:") {
		t.Errorf("yaml body missing geodetic key")
	}
}

func TestPositionDecayed(t *testing.T) {
	epoch := time.Date(2021, 5, 27, 12, 0, 0, 0, time.UTC)
	store := tle.NewStore()
	store.Set(tle.NewDataset("test", epoch, []tle.Entry{{
		NORADID: 99999,
		Name:    "REENTRY",
		Elements: tle.Elements{
			SatNum:       99999,
			Epoch:        epoch,
			EpochYear:    2021,
			EpochDay:     147.5,
			Inclination:  51.6,
			Eccentricity: 0.35,
			MeanAnomaly:  180,
			MeanMotion:   10,
		},
	}}))
	gen := ephemeris.NewGenerator(store, eop.Static{}, ephemeris.Config{Gravity: propagation.WGS72}, testLogger())
	h := newHandler(Config{}, testLogger(), gen, store)

	w := get(h, "/api/v1/position?t="+epoch.Add(72*time.Minute).Format(time.RFC3339))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body %s)", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["result"] != "decayed" {
		t.Errorf("result = %v, want decayed", body["result"])
	}

	w = get(h, "/api/v1/position?t=1969-07-20T20:17:00Z")
	if w.Code != http.StatusBadRequest {
		t.Errorf("pre-1972 status = %d, want 400", w.Code)
	}
}

func TestPositionNoElements(t *testing.T) {
	store := tle.NewStore()
	gen := ephemeris.NewGenerator(store, eop.Static{}, ephemeris.Config{}, testLogger())
	h := newHandler(Config{}, testLogger(), gen, store)

	if w := get(h, "/api/v1/position"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if w := get(h, "/api/v1/elements"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("elements status = %d, want 503", w.Code)
	}
}

// TestEphemerisCountBudget verifies that oversized series are rejected with
// 400 instead of consuming unbounded CPU.
func TestEphemerisCountBudget(t *testing.T) {
	h := testServer(t, auth.Config{})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{"defaults within budget", "?start=2021-05-27T13:00:00Z", http.StatusOK, 60},
		{"seconds step", "?start=2021-05-27T13:00:00Z&step=30&count=5", http.StatusOK, 5},
		{"duration step", "?start=2021-05-27T13:00:00Z&step=1m30s&count=10", http.StatusOK, 10},
		{"count over max", "?start=2021-05-27T13:00:00Z&count=101", http.StatusBadRequest, 0},
		{"count zero", "?start=2021-05-27T13:00:00Z&count=0", http.StatusBadRequest, 0},
		{"count not a number", "?start=2021-05-27T13:00:00Z&count=many", http.StatusBadRequest, 0},
		{"zero step", "?start=2021-05-27T13:00:00Z&step=0", http.StatusBadRequest, 0},
		{"negative step", "?start=2021-05-27T13:00:00Z&step=-1m", http.StatusBadRequest, 0},
		{"bad start", "?start=soon", http.StatusBadRequest, 0},
		{"runs past eop table", "?start=2021-05-27T23:00:00Z&step=1h&count=5", http.StatusRequestedRangeNotSatisfiable, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(h, "/api/v1/ephemeris"+tt.query)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			body := decodeBody(t, w)
			if tt.wantStatus != http.StatusOK {
				if body["error"] == nil {
					t.Error("expected error field in response")
				}
				if strings.Contains(tt.name, "count over") && body["max_count"] != float64(100) {
					t.Errorf("max_count = %v, want 100", body["max_count"])
				}
				return
			}
			fixes, _ := body["fixes"].([]any)
			if len(fixes) != tt.wantCount {
				t.Errorf("got %d fixes, want %d", len(fixes), tt.wantCount)
			}
		})
	}
}

func TestElements(t *testing.T) {
	h := testServer(t, auth.Config{})

	w := get(h, "/api/v1/elements?t=2021-05-27T13:00:00Z")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp elementsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.NORADID != 25544 || resp.Line1 != issLine1 || resp.Name != "ISS (ZARYA)" {
		t.Errorf("unexpected entry: %+v", resp)
	}
	if resp.Gravity != "wgs84" || resp.Count != 1 || resp.Source != "test" {
		t.Errorf("unexpected metadata: %+v", resp)
	}
	if resp.AgeDays <= 0 || resp.AgeDays > 1 {
		t.Errorf("age_days = %v", resp.AgeDays)
	}
}

func TestProbesAndMetrics(t *testing.T) {
	notReady := func() error { return errors.New("no EOP table loaded") }
	h := testServer(t, auth.Config{Enabled: true, Token: "s3cret"}, notReady)

	if w := get(h, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("/healthz = %d", w.Code)
	}
	if w := get(h, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz = %d, want 503", w.Code)
	}

	// One authorized fix so the counters have a sample.
	if w := get(h, "/api/v1/position?t=2021-05-27T13:00:00Z", "Authorization", "Bearer s3cret"); w.Code != http.StatusOK {
		t.Fatalf("authorized position = %d", w.Code)
	}
	w := get(h, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", w.Code)
	}
	for _, name := range []string{"issblh_fixes_total", "issblh_http_requests_total", "issblh_propagator_rebuilds_total"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("/metrics missing %s", name)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	h := testServer(t, auth.Config{Enabled: true, Token: "s3cret"})

	for _, path := range []string{"/api/v1/position", "/api/v1/ephemeris", "/api/v1/elements"} {
		if w := get(h, path); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token = %d, want 401", path, w.Code)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&propagation.SatelliteDecayedError{Tsince: 72, Radius: 6000}, http.StatusUnprocessableEntity},
		{fmt.Errorf("propagate: %w", &propagation.InvalidElementError{Reason: "x"}), http.StatusUnprocessableEntity},
		{&propagation.NonConvergenceError{Iterations: 10}, http.StatusUnprocessableEntity},
		{fmt.Errorf("eop lookup: %w", &eop.OutOfRangeError{}), http.StatusRequestedRangeNotSatisfiable},
		{tle.ErrNoElements, http.StatusServiceUnavailable},
		{fmt.Errorf("time scales: %w", timescale.ErrBeforeLeapTable), http.StatusBadRequest},
		{ephemeris.ErrCount, http.StatusBadRequest},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", time.Minute, false},
		{"90s", 90 * time.Second, false},
		{"2.5", 2500 * time.Millisecond, false},
		{"1h", time.Hour, false},
		{"fast", 0, true},
	}
	for _, tt := range tests {
		got, err := parseStep(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseStep(%q) = %v, %v; want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
