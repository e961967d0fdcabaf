package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout puts a deadline on each request context and runs the
// handler on the request goroutine. Repositories pass the context to pgx, so
// a slow query is cancelled at the deadline and the resulting
// context.DeadlineExceeded becomes a 504. A handler that ignores the context
// keeps sole ownership of the response and finishes normally.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if c.Response().Committed {
				return err
			}
			if err != nil && errors.Is(err, context.DeadlineExceeded) {
				return gatewayTimeout()
			}
			if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return gatewayTimeout()
			}
			return err
		}
	}
}

func gatewayTimeout() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusGatewayTimeout, "Request processing exceeded the allowed time limit")
}
