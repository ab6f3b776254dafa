package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, v1.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, v1.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, v1.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, v1.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, v1.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, v1.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// errorHandler renders every error as {"message": ...}. Internal errors are
// logged and hidden from the client.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, ErrorResponse{Message: msg})
	}
	if werr != nil {
		s.logger.Warn("writing error response failed", zap.Error(werr))
	}
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
