package httpx

import "github.com/labstack/echo/v4"

// Success wraps every 2xx payload.
type Success struct {
	Data any `json:"data"`
}

// NewSuccess wraps data.
func NewSuccess(data any) *Success {
	return &Success{Data: data}
}

// SendSuccess writes data wrapped in Success with the given status.
func SendSuccess(c echo.Context, code int, data any) error {
	return c.JSON(code, NewSuccess(data))
}
