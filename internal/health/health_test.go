package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	Healthz(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok\n" {
		t.Errorf("Healthz = %d %q", w.Code, w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	ok := func() error { return nil }
	noTLE := func() error { return errors.New("no element sets loaded") }
	noEOP := func() error { return errors.New("no EOP table loaded") }

	tests := []struct {
		name       string
		checks     []Check
		wantStatus int
		wantBody   []string
	}{
		{"no checks", nil, http.StatusOK, []string{"ready"}},
		{"all pass", []Check{ok, ok}, http.StatusOK, []string{"ready"}},
		{"one failing", []Check{ok, noTLE}, http.StatusServiceUnavailable, []string{"not ready", "element sets"}},
		{"all failing", []Check{noTLE, noEOP}, http.StatusServiceUnavailable, []string{"element sets", "EOP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Readyz(tt.checks...)(w, httptest.NewRequest("GET", "/readyz", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			for _, s := range tt.wantBody {
				if !strings.Contains(w.Body.String(), s) {
					t.Errorf("body %q does not contain %q", w.Body.String(), s)
				}
			}
		})
	}
}
