package httpx

import "github.com/labstack/echo/v4"

// Machine-readable error codes.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeHTTP               = "HTTP_ERROR"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// APIError is the body of every 4xx and 5xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewAPIError builds an APIError.
func NewAPIError(code, message string, details any) APIError {
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// SendAPIError writes err with the given status.
func SendAPIError(c echo.Context, httpStatus int, err APIError) error {
	return c.JSON(httpStatus, err)
}
