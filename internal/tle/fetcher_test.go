package tle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func catalogServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcherCatalogs(t *testing.T) {
	iss := "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n"
	vanguard := "VANGUARD 1\n" + vanguardLine1 + "\n" + vanguardLine2 // no trailing newline

	tests := []struct {
		name    string
		primary *httptest.Server
		extra   []*httptest.Server
		wantIDs []int
		wantErr bool
	}{
		{
			name:    "single catalog",
			primary: catalogServer(t, http.StatusOK, iss),
			wantIDs: []int{25544},
		},
		{
			name:    "extra catalog appended after unterminated primary",
			primary: catalogServer(t, http.StatusOK, vanguard),
			extra:   []*httptest.Server{catalogServer(t, http.StatusOK, iss)},
			wantIDs: []int{5, 25544},
		},
		{
			name:    "failing extra catalog is skipped",
			primary: catalogServer(t, http.StatusOK, iss),
			extra:   []*httptest.Server{catalogServer(t, http.StatusBadGateway, "")},
			wantIDs: []int{25544},
		},
		{
			name:    "failing primary fails the fetch",
			primary: catalogServer(t, http.StatusInternalServerError, ""),
			extra:   []*httptest.Server{catalogServer(t, http.StatusOK, iss)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var extra []string
			for _, s := range tt.extra {
				extra = append(extra, s.URL)
			}
			f := NewFetcher(tt.primary.URL, testLogger, extra...)
			data, err := f.Fetch(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}

			entries, stats, err := Parse(strings.NewReader(string(data)), testLogger)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if stats.Skipped != 0 {
				t.Errorf("skipped %d element sets", stats.Skipped)
			}
			if len(entries) != len(tt.wantIDs) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if entries[i].NORADID != id {
					t.Errorf("entry %d: NORAD ID %d, want %d", i, entries[i].NORADID, id)
				}
			}
		})
	}
}

func TestFetcherBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := strings.Repeat("1", 1<<20)
		for i := 0; i <= maxBodyBytes>>20; i++ {
			if _, err := io.WriteString(w, chunk); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, testLogger).Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "byte limit") {
		t.Fatalf("err = %v, want byte limit error", err)
	}
}

func TestFetcherContextCanceled(t *testing.T) {
	srv := catalogServer(t, http.StatusOK, issLine1+"\n"+issLine2+"\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(srv.URL, testLogger).Fetch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestFetcherDefaultURL(t *testing.T) {
	if got := NewFetcher("", testLogger).SourceURL(); got != DefaultSourceURL {
		t.Errorf("SourceURL = %q, want %q", got, DefaultSourceURL)
	}
}
