package admin

import "fmt"

// JSON-RPC error codes
const (
	ErrParseError      = -32700
	ErrInvalidRequest  = -32600
	ErrMethodNotFound  = -32601
	ErrInvalidParams   = -32602
	ErrServerError     = -32000
	ErrUnauthenticated = -32001
	ErrForbidden       = -32003
	ErrNotFound        = -32004
)

// Error is a JSON-RPC error a method can return to pick its own code
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

func invalidParams(format string, args ...interface{}) *Error {
	return NewError(ErrInvalidParams, fmt.Sprintf(format, args...))
}

func notFound(what string, id int64) *Error {
	return NewError(ErrNotFound, fmt.Sprintf("%s %d not found", what, id))
}
