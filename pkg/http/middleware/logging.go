package middleware

import (
	"time"

	applogger "SignalForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests. Successful health checks are logged at debug.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			switch {
			case err != nil:
				l.Error("http request error", append(fields, applogger.Error(err))...)
			case res.Status >= 500:
				l.Error("http request failed", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return err
		}
	}
}
