package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", StatusCategory(http.StatusCreated))
	assert.Equal(t, "4xx", StatusCategory(http.StatusNotFound))
	assert.Equal(t, "5xx", StatusCategory(http.StatusBadGateway))
	assert.Equal(t, "", StatusCategory(http.StatusFound))
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPMetrics("metrics-test")
	_ = NewHTTPMetrics("metrics-test") // registering twice must not panic

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(RequestCounter.WithLabelValues("metrics-test", "GET", "/ping", "200")))
}

func TestMiddlewareLabelsUnmatchedRoutes(t *testing.T) {
	m := NewHTTPMetrics("metrics-unmatched")

	e := echo.New()
	e.Use(m.Middleware())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere/123", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(RequestCounter.WithLabelValues("metrics-unmatched", "GET", unmatchedPath, "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(InFlightGauge.WithLabelValues("metrics-unmatched")))
}
