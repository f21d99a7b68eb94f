package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Refresh(RefreshOK, time.Second)
	m.QueryError("targets")
	m.CacheHit()
	m.CacheMiss()
	m.Login(true)
	m.DepositIngested("ok")
	m.Snapshot(1, 2, 3, 4)

	h := m.WrapHandler("/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("nil metrics should pass requests through, got %d", rec.Code)
	}
}

func TestMetrics_Exposition(t *testing.T) {
	m := New()
	m.Refresh(RefreshOK, 150*time.Millisecond)
	m.Refresh(RefreshError, time.Second)
	m.Login(false)
	m.CacheHit()
	m.Snapshot(42.5, 7_000_000, 1, 0)

	wrapped := m.WrapHandler("/dashboard", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	for _, want := range []string{
		`platinum_refresh_total{result="ok"} 1`,
		`platinum_refresh_total{result="error"} 1`,
		`platinum_login_attempts_total{result="failure"} 1`,
		`platinum_query_cache_hits_total 1`,
		`platinum_percent_of_goal 42.5`,
		`platinum_dropped_rows{table="targets"} 1`,
		`platinum_http_requests_total{route="/dashboard",status="404"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
