package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/credvault"
	"github.com/MrEthical07/credvault/internal/httpx"
	"github.com/MrEthical07/credvault/internal/platform/logger"
	"github.com/MrEthical07/credvault/internal/validatorx"
	"github.com/labstack/echo/v4"
)

const unauthorizedMessage = "Invalid or expired credentials"

// ErrorHandler turns handler errors into httpx.APIError responses. Every credential
// and authentication failure gets the same 401 body.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	log := logger.GetLogger(c.Request().Context())

	var valErr validatorx.ValidationError
	if errors.As(err, &valErr) {
		_ = httpx.SendAPIError(c, http.StatusBadRequest, httpx.NewAPIError(
			httpx.CodeValidation,
			"One or more fields failed validation",
			valErr.Errors,
		))
		return
	}

	var httpStatus int
	var errResp httpx.APIError
	switch {
	case errors.Is(err, credvault.ErrInvalidInput):
		httpStatus = http.StatusBadRequest
		errResp = httpx.NewAPIError(httpx.CodeValidation, "Invalid email or password", nil)

	case errors.Is(err, credvault.ErrEmailAlreadyRegistered):
		httpStatus = http.StatusConflict
		errResp = httpx.NewAPIError(httpx.CodeConflict, "Email already registered", nil)

	case errors.Is(err, credvault.ErrInvalidCredential),
		errors.Is(err, credvault.ErrUnauthorized):
		httpStatus = http.StatusUnauthorized
		errResp = httpx.NewAPIError(httpx.CodeUnauthorized, unauthorizedMessage, nil)

	case errors.Is(err, errRateLimited):
		httpStatus = http.StatusTooManyRequests
		errResp = httpx.NewAPIError(httpx.CodeTooManyRequests, "Too many requests, try again later", nil)

	case errors.Is(err, credvault.ErrTransient):
		log.Warn("backend unavailable", slog.String("error", err.Error()))
		httpStatus = http.StatusServiceUnavailable
		errResp = httpx.NewAPIError(httpx.CodeServiceUnavailable, "Service temporarily unavailable", nil)
	}

	if httpStatus != 0 {
		_ = httpx.SendAPIError(c, httpStatus, errResp)
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = httpx.SendAPIError(c, httpErr.Code, httpx.NewAPIError(httpx.CodeHTTP, fmt.Sprintf("%v", httpErr.Message), nil))
		return
	}

	log.Error("unhandled internal error", slog.String("error", err.Error()))
	_ = httpx.SendAPIError(c, http.StatusInternalServerError, httpx.NewAPIError(
		httpx.CodeInternal,
		"An unexpected error occurred",
		nil,
	))
}
