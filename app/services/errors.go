// Package services holds the business logic behind the API: credential and
// code-based sign-in, password reset, order creation and reporting, and the
// contact relay. Services return *Error values that controllers translate
// into HTTP responses.
package services

// Error is a domain error with the HTTP status it should surface as.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds a domain error.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}
