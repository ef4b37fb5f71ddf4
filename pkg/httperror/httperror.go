package httperror

import "fmt"

// Error is the structured error every handler returns. Code is a stable
// machine-readable identifier ("item.create.validation_failed"), Message is
// human-readable, Details carries optional context for the response body.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(status int, code, message string, details any) *Error {
	return &Error{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func BadRequest(code, message string, details any) *Error {
	return New(400, code, message, details)
}

func Unauthorized(code, message string, details any) *Error {
	return New(401, code, message, details)
}

func Forbidden(code, message string, details any) *Error {
	return New(403, code, message, details)
}

func NotFound(code, message string, details any) *Error {
	return New(404, code, message, details)
}

func Conflict(code, message string, details any) *Error {
	return New(409, code, message, details)
}

func InternalServerError(code, message string, details any) *Error {
	return New(500, code, message, details)
}

func ServiceUnavailable(code, message string, details any) *Error {
	return New(503, code, message, details)
}

func NoContent(code, message string, details any) *Error {
	return New(204, code, message, details)
}
