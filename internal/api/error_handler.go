package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/krush/market-core/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Error is
// the stable code clients branch on; Message is for humans.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to a stable code and HTTP status.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders {"error": "<code>", "message": "<text>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: codeForStatus(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	code := domain.Code(err)
	switch code {
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized, errorResponse{Error: code, Message: err.Error()}
	case domain.CodeForbidden, domain.CodeSelfChatForbidden:
		return http.StatusForbidden, errorResponse{Error: code, Message: err.Error()}
	case domain.CodeNotFound:
		return http.StatusNotFound, errorResponse{Error: code, Message: err.Error()}
	case domain.CodeInvalidContent:
		return http.StatusBadRequest, errorResponse{Error: code, Message: err.Error()}
	case domain.CodeRateLimited:
		return http.StatusTooManyRequests, errorResponse{Error: code, Message: "too many requests, slow down"}
	case domain.CodeConflict:
		return http.StatusConflict, errorResponse{Error: code, Message: "conflicting write, retry"}
	case domain.CodeTransient:
		log.Warn().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("transient failure")
		return http.StatusServiceUnavailable, errorResponse{Error: code, Message: "temporarily unavailable, retry"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: domain.CodeInternal, Message: "internal server error"}
}

// codeForStatus gives echo's transport errors the same code vocabulary as
// domain errors.
func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return domain.CodeInvalidContent
	case http.StatusUnauthorized:
		return domain.CodeUnauthorized
	case http.StatusForbidden:
		return domain.CodeForbidden
	case http.StatusNotFound:
		return domain.CodeNotFound
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return domain.CodeRateLimited
	case http.StatusServiceUnavailable:
		return domain.CodeTransient
	}
	if status >= 500 {
		return domain.CodeInternal
	}
	return "bad_request"
}
