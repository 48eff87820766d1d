// Package apierror carries an HTTP status code alongside an error so that
// provider clients and the provider's own HTTP surface can interpret
// failures without parsing message text.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is the error type returned when talking to an upstream record
// endpoint, and the type encoded into provider error responses.
type Error struct {
	err    error
	status int
}

// ErrorMessage is the JSON envelope of an error response.
type ErrorMessage struct {
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
}

func New(err error, status int) *Error {
	return &Error{
		err:    err,
		status: status,
	}
}

// FromResponse builds an error from an HTTP response status and body. The
// trimmed body text becomes the message; an empty body falls back to the
// standard status text.
func FromResponse(status int, body []byte) error {
	var err error
	text := strings.TrimSpace(string(body))
	if text != "" {
		err = errors.New(text)
	}
	if status == 0 {
		return err
	}
	return New(err, status)
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.status == 0 {
		return ""
	}
	if text := http.StatusText(e.status); text != "" {
		return fmt.Sprintf("%d %s", e.status, text)
	}
	return fmt.Sprintf("%d", e.status)
}

func (e *Error) Status() int {
	return e.status
}

func (e *Error) Unwrap() error {
	return e.err
}

// EncodeError returns the JSON envelope for an error. If the error is an
// *Error its status is included. A nil error encodes to nil.
func EncodeError(err error) []byte {
	if err == nil {
		return nil
	}
	e := ErrorMessage{
		Error: err.Error(),
	}
	var apierr *Error
	if errors.As(err, &apierr) {
		e.Status = apierr.Status()
	}
	data, jerr := json.Marshal(&e)
	if jerr != nil {
		// Marshaling a two-field struct of scalars cannot fail, but never
		// return nil for a non-nil error.
		return []byte(`{"error":"internal server error"}`)
	}
	return data
}
