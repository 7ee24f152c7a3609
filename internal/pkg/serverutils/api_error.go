package serverutils

import "fmt"

// ApiError is a caller-facing error carrying the HTTP status it should be
// surfaced with. Services return it, the error middleware renders it.
type ApiError struct {
	Status  int
	Message string
	Err     error
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func NewApiError(status int, message string) *ApiError {
	return &ApiError{Status: status, Message: message}
}

func WrapApiError(status int, message string, err error) *ApiError {
	return &ApiError{Status: status, Message: message, Err: err}
}
