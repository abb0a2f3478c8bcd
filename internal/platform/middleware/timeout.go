package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout sets a deadline on each request context. The handler runs
// on the calling goroutine, so store calls made with that context are
// cancelled when it passes and the handler returns before the context is
// released. If the deadline passed and nothing has been written yet, the
// client receives 504.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if c.Response().Committed || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return err
			}
			return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
		}
	}
}
