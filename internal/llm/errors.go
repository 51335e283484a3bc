package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyCompletion means the API answered 2xx with no usable text
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrNoJSON means the completion contained no JSON object or array
	ErrNoJSON = errors.New("no JSON in completion")
)

// StatusError is a non-2xx answer from the completion API
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion API returned status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// IsQuotaExhausted reports a 402 Payment Required answer
func IsQuotaExhausted(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusPaymentRequired
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
