package directory

import (
	"fmt"
	"net/http"
)

// QueryError is returned by every failing directory operation. Message is
// what ends up in the error envelope.
type QueryError struct {
	Op         string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func newFetchError(op, url string, err error) *QueryError {
	return &QueryError{
		Op:      op,
		URL:     url,
		Message: err.Error(),
		Err:     err,
	}
}

// newStatusError mirrors the wording upstream clients commonly use, e.g.
// "404 Client Error: Not Found for url: https://...".
func newStatusError(op, url string, code int) *QueryError {
	kind := "Server Error"
	if code < 500 {
		kind = "Client Error"
	}
	return &QueryError{
		Op:         op,
		URL:        url,
		StatusCode: code,
		Message:    fmt.Sprintf("%d %s: %s for url: %s", code, kind, http.StatusText(code), url),
	}
}

func newDecodeError(op, url string, err error) *QueryError {
	return &QueryError{
		Op:      op,
		URL:     url,
		Message: fmt.Sprintf("invalid JSON from %s: %v", url, err),
		Err:     err,
	}
}

func newFieldError(op string, index int, field string) *QueryError {
	return &QueryError{
		Op:      op,
		Message: fmt.Sprintf("company record %d: missing field %q", index, field),
	}
}

func newTypeError(op string, index int, field string, v any) *QueryError {
	got := "null"
	if v != nil {
		got = fmt.Sprintf("%T", v)
	}
	return &QueryError{
		Op:      op,
		Message: fmt.Sprintf("company record %d: field %q is %s, not a string", index, field, got),
	}
}
