package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the JSON shape of a flat error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// HTTPErrorHandler renders handler errors as JSON. String messages become
// {"error": msg}; any other message (field-keyed validation maps) is written
// as is. Errors that are not *echo.HTTPError are logged and hidden behind a
// generic 500.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
			he = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		if he.Internal != nil {
			if inner, ok := he.Internal.(*echo.HTTPError); ok {
				he = inner
			}
		}

		var body interface{}
		switch msg := he.Message.(type) {
		case string:
			body = ErrorBody{Error: msg}
		case nil:
			body = ErrorBody{Error: http.StatusText(he.Code)}
		default:
			body = msg
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
