package middleware

import (
	"net/http"
	"strconv"
	"time"

	"hours-ledger/internal/metrics"

	"github.com/labstack/echo/v4"
)

const MetricsPath = "/metrics"

// Metrics records request count, latency and in-flight requests per route
// template, so ids in the path do not explode label cardinality.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == MetricsPath {
			return next(c)
		}

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		path := c.Path()
		if path == "" || c.Response().Status == http.StatusNotFound && path == "/*" {
			path = "unmatched"
		}
		method := c.Request().Method
		status := strconv.Itoa(c.Response().Status)

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return nil
	}
}
