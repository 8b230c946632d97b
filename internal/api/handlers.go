package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/issblh/internal/ephemeris"
	"github.com/star/issblh/internal/metrics"
	"github.com/star/issblh/internal/output"
	"github.com/star/issblh/internal/timescale"
	"github.com/star/issblh/internal/tle"
	"github.com/star/issblh/internal/transform"
)

const (
	defaultStep  = time.Minute
	defaultCount = 60
)

var contentTypes = map[output.Format]string{
	output.Text: "text/plain; charset=utf-8",
	output.JSON: "application/json",
	output.YAML: "application/yaml",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, extra map[string]any) {
	body := map[string]any{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// errorStatus maps a pipeline error to an HTTP status.
func errorStatus(err error) int {
	switch ephemeris.Classify(err) {
	case metrics.ResultDecayed, metrics.ResultInvalid, metrics.ResultNonConvergence:
		return http.StatusUnprocessableEntity
	case metrics.ResultEOPRange:
		return http.StatusRequestedRangeNotSatisfiable
	}
	switch {
	case errors.Is(err, tle.ErrNoElements):
		return http.StatusServiceUnavailable
	case errors.Is(err, timescale.ErrBeforeLeapTable), errors.Is(err, ephemeris.ErrCount):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeFixError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= 500 {
		logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error(), map[string]any{"result": ephemeris.Classify(err)})
}

// parseInstant reads an instant query parameter: JST digits or RFC3339.
// Empty means now.
func parseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return timescale.ParseInstant(s)
}

// parseStep accepts a Go duration ("90s", "1m30s") or a number of seconds.
func parseStep(s string) (time.Duration, error) {
	if s == "" {
		return defaultStep, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func parseFormat(s string) (output.Format, error) {
	if s == "" {
		return output.JSON, nil
	}
	return output.ParseFormat(s)
}

// positionHandler serves GET /api/v1/position?t=&observer=&format=.
func positionHandler(logger *slog.Logger, gen *ephemeris.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		at, err := parseInstant(q.Get("t"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid t: "+err.Error(), nil)
			return
		}
		format, err := parseFormat(q.Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		var observer *transform.Geodetic
		if s := q.Get("observer"); s != "" {
			obs, err := transform.ParseObserver(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error(), nil)
				return
			}
			observer = &obs
		}

		fix, err := gen.FixAt(r.Context(), at)
		if err != nil {
			writeFixError(w, logger, r, err)
			return
		}

		w.Header().Set("Content-Type", contentTypes[format])
		if err := output.Render(w, output.NewReport(fix, observer), format); err != nil {
			logger.Error("writing position response", "error", err)
		}
	}
}

// ephemerisHandler serves GET /api/v1/ephemeris?start=&step=&count=&format=.
func ephemerisHandler(logger *slog.Logger, gen *ephemeris.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		start, err := parseInstant(q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start: "+err.Error(), nil)
			return
		}
		step, err := parseStep(q.Get("step"))
		if err != nil || step <= 0 {
			writeError(w, http.StatusBadRequest, "step must be a positive duration", nil)
			return
		}
		count := defaultCount
		if s := q.Get("count"); s != "" {
			count, err = strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid count", nil)
				return
			}
		}
		if count < 1 || count > gen.MaxCount() {
			writeError(w, http.StatusBadRequest, "count out of range", map[string]any{
				"count":     count,
				"max_count": gen.MaxCount(),
			})
			return
		}
		format, err := parseFormat(q.Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		fixes, err := gen.Series(r.Context(), start, step, count)
		if err != nil {
			writeFixError(w, logger, r, err)
			return
		}

		w.Header().Set("Content-Type", contentTypes[format])
		if err := output.RenderSeries(w, fixes, format); err != nil {
			logger.Error("writing ephemeris response", "error", err)
		}
	}
}

// elementsResponse describes the element set serving an instant.
type elementsResponse struct {
	NORADID   int       `json:"norad_id"`
	Name      string    `json:"name"`
	Line1     string    `json:"line1"`
	Line2     string    `json:"line2"`
	Epoch     time.Time `json:"epoch"`
	AgeDays   float64   `json:"age_days"`
	Gravity   string    `json:"gravity"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Count     int       `json:"count"`
	EpochMin  time.Time `json:"epoch_min"`
	EpochMax  time.Time `json:"epoch_max"`
}

// elementsHandler serves GET /api/v1/elements?t=.
func elementsHandler(logger *slog.Logger, gen *ephemeris.Generator, store *tle.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		at, err := parseInstant(r.URL.Query().Get("t"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid t: "+err.Error(), nil)
			return
		}

		entry, err := gen.Elements(at)
		if err != nil {
			writeFixError(w, logger, r, err)
			return
		}
		ds := store.Get()
		if ds == nil {
			writeFixError(w, logger, r, tle.ErrNoElements)
			return
		}

		writeJSON(w, http.StatusOK, elementsResponse{
			NORADID:   entry.NORADID,
			Name:      entry.Name,
			Line1:     entry.Line1,
			Line2:     entry.Line2,
			Epoch:     entry.Epoch(),
			AgeDays:   at.Sub(entry.Epoch()).Hours() / 24,
			Gravity:   gen.Gravity().Name,
			Source:    ds.Source,
			FetchedAt: ds.FetchedAt,
			Count:     len(ds.Entries),
			EpochMin:  ds.EpochRange.Min,
			EpochMax:  ds.EpochRange.Max,
		})
	}
}
