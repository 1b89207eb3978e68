package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `docudesk_http_requests_total{code="418",route="/test"} 1`)
	assert.Contains(t, body, `docudesk_http_request_duration_seconds_bucket{route="/test"`)
}

func TestMetricsObserveRender(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveRender(false, 3)
	metrics.ObserveRender(true, 3)
	metrics.ObserveRender(true, 1)

	body := scrape(t, metrics)
	assert.Contains(t, body, `docudesk_renders_total{cache="hit"} 2`)
	assert.Contains(t, body, `docudesk_renders_total{cache="miss"} 1`)
	assert.Contains(t, body, `docudesk_render_pages_count 3`)
}

func TestMetricsNilIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveRender(true, 1)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, metrics.Middleware(next))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
