package types

import (
	"errors"
	"fmt"
)

// Error kinds. Each SearchError unwraps to the sentinel for its kind.
var (
	ErrTransport               = errors.New("transport error")
	ErrResponseParse           = errors.New("response parse error")
	ErrMalformedEnvelope       = errors.New("malformed response envelope")
	ErrQuerySyntax             = errors.New("search query syntax error")
	ErrHTTPStatus              = errors.New("http status error")
	ErrCapacityExceeded        = errors.New("request queue capacity exceeded")
	ErrGatewayTimeout          = errors.New("gateway timeout")
	ErrConnectionReset         = errors.New("connection reset")
	ErrProtocol                = errors.New("protocol error")
	ErrConfiguration           = errors.New("configuration error")
	ErrInvalidPageSize         = errors.New("page size must be > 0")
	ErrHighlightFetch          = errors.New("highlight fetch error")
	ErrHighlightResponseFormat = errors.New("highlight response format error")
)

// SearchError is a classified failure with a user-facing code and detail.
// Status is the HTTP status as a string ("400") and Code is stable ("ES_2").
type SearchError struct {
	Kind   error
	Status string
	Code   string
	Title  string
	Detail string
	Meta   map[string]any
	Err    error
}

func (e *SearchError) Error() string {
	msg := e.Detail
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *SearchError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewConfigurationError reports bad options detected before any request
func NewConfigurationError(detail string, cause error) *SearchError {
	return &SearchError{
		Kind:   ErrConfiguration,
		Title:  "Configuration Error",
		Detail: detail,
		Err:    cause,
	}
}

// BatchError reports the hard failures of a lookup batch.
// Detail is the first error's detail message.
type BatchError struct {
	Detail string
	Errors []*SearchError
}

func (e *BatchError) Error() string {
	if len(e.Errors) <= 1 {
		return e.Detail
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Detail, len(e.Errors)-1)
}

// Unwrap exposes the individual group errors to errors.Is/As
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// AsSearchError converts any error into a SearchError, wrapping unknown
// errors as transport errors.
func AsSearchError(err error) *SearchError {
	var se *SearchError
	if errors.As(err, &se) {
		return se
	}
	return &SearchError{
		Kind:   ErrTransport,
		Detail: "Error making HTTP request",
		Err:    err,
	}
}
