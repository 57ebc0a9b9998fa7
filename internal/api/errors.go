package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"ResearchAgent/internal/apperr"
)

const internalMessage = "An unexpected error occurred. Please try again later."

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler renders errors as {"error":{"code","message"}}. Messages of
// server-side failures are replaced so store internals do not leak.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)

		var (
			status int
			body   errorBody
			appErr *apperr.Error
			httpEr *echo.HTTPError
		)

		switch {
		case errors.As(err, &appErr):
			status = appErr.Status
			body.Error = errorDetail{Code: string(appErr.Code), Message: appErr.Message}
			if status >= http.StatusInternalServerError {
				logger.Error("request failed", "request_id", requestID, "code", appErr.Code, "error", appErr.Message, "details", appErr.Details)
				body.Error.Message = internalMessage
			}

		case errors.As(err, &httpEr):
			status = httpEr.Code
			msg := http.StatusText(status)
			if m, ok := httpEr.Message.(string); ok {
				msg = m
			}
			body.Error = errorDetail{Code: "HTTP_ERROR", Message: msg}
			if status >= http.StatusInternalServerError {
				body.Error.Message = internalMessage
			}

		default:
			status = http.StatusInternalServerError
			body.Error = errorDetail{Code: string(apperr.ErrInternal), Message: internalMessage}
			logger.Error("unhandled error", "request_id", requestID, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("failed to send error response", "request_id", requestID, "error", err)
		}
	}
}
