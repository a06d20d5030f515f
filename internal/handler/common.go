package handler // handler defines http handlers

import (
	"errors"  // errors provides the sentinel used in getAccountID
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types
)

// envelope is the JSON shape returned by every allocation, venue and
// attendee endpoint: {success, message, data}. success mirrors the
// HTTP status class so clients can branch without inspecting codes.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respond writes the standard envelope with the given status.
func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: status < 400, Message: message, Data: data})
}

// getAccountID extracts the account_id from echo.Context and converts it to uint64.
// JWT claims decode numbers as float64, so several representations are accepted.
func getAccountID(c echo.Context) (uint64, error) {
	v := c.Get("account_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid account_id in context")
}
