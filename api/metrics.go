package api

import (
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// RequestMetrics emits one structured log line per request with the same
// field layout across all routes. Handler errors stay on the wire contract;
// this is server-side observability only.
func RequestMetrics(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var httpErr *echo.HTTPError
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					httpErr = he
					status = he.Code
				}
			}

			fields := log.Fields{
				"method":   c.Request().Method,
				"route":    c.Path(),
				"status":   status,
				"total_ms": durationToMillis(time.Since(start)),
			}
			if err != nil && httpErr == nil {
				fields["error"] = err.Error()
			}
			logger.WithFields(fields).Debug("request completed")
			return err
		}
	}
}

func durationToMillis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
