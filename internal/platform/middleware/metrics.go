package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/patientmanager/internal/platform/metrics"
)

// Metrics records request count, latency and in-flight requests. Routes are
// labelled by their registered pattern so /patients/:ci stays one series.
func Metrics(m *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			m.InFlightGauge.Inc()
			defer m.InFlightGauge.Dec()

			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, route, responseStatus(c, err), time.Since(start))
			return err
		}
	}
}
