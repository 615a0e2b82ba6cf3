// Package httperr defines the JSON error envelopes the simulator returns to
// callers. Each simulated failure class maps to exactly one envelope.
package httperr

import (
	"encoding/json"
	"net/http"
)

// Error is a client-visible error. RetryAfter is a hint in milliseconds and
// only set on rate-limit rejections.
type Error struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// WriteJSON writes the error as JSON to the response. Base errors (no
// request-scoped fields) use pre-serialized bytes to avoid allocations.
func (e *Error) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code)
	if pre, ok := preSerialized[e]; ok {
		w.Write(pre)
		return
	}
	json.NewEncoder(w).Encode(e)
}

// WithRetryAfter returns a copy carrying a retry-after hint in milliseconds.
func (e *Error) WithRetryAfter(ms int) *Error {
	clone := *e
	clone.RetryAfter = ms
	return &clone
}

// WithRequestID returns a copy tagged with the request ID.
func (e *Error) WithRequestID(id string) *Error {
	clone := *e
	clone.RequestID = id
	return &clone
}

// WithMessage returns a copy with a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	clone := *e
	clone.Message = msg
	return &clone
}

// One envelope per failure class. Rate-limit and breaker-open rejections are
// admission decisions; the remaining three are simulated upstream outcomes.
var (
	ErrRateLimited = &Error{
		Code:      http.StatusTooManyRequests,
		Message:   "rate limit exceeded",
		Retryable: true,
	}

	ErrBreakerOpen = &Error{
		Code:      http.StatusServiceUnavailable,
		Message:   "circuit breaker is open",
		Retryable: true,
	}

	ErrTransient = &Error{
		Code:      http.StatusServiceUnavailable,
		Message:   "transient provider failure",
		Retryable: true,
	}

	ErrPermanent = &Error{
		Code:      http.StatusInternalServerError,
		Message:   "permanent provider failure",
		Retryable: false,
	}

	ErrTimeout = &Error{
		Code:      http.StatusRequestTimeout,
		Message:   "provider timed out",
		Retryable: false,
	}

	ErrBadRequest = &Error{
		Code:      http.StatusBadRequest,
		Message:   "invalid request",
		Retryable: false,
	}

	ErrNotFound = &Error{
		Code:      http.StatusNotFound,
		Message:   "not found",
		Retryable: false,
	}

	ErrMethodNotAllowed = &Error{
		Code:      http.StatusMethodNotAllowed,
		Message:   "method not allowed",
		Retryable: false,
	}

	ErrInternalServer = &Error{
		Code:      http.StatusInternalServerError,
		Message:   "internal server error",
		Retryable: false,
	}
)

// preSerialized holds JSON-encoded bytes for base error singletons.
var preSerialized map[*Error][]byte

func init() {
	bases := []*Error{
		ErrRateLimited, ErrBreakerOpen, ErrTransient, ErrPermanent,
		ErrTimeout, ErrBadRequest, ErrNotFound, ErrMethodNotAllowed,
		ErrInternalServer,
	}
	preSerialized = make(map[*Error][]byte, len(bases))
	for _, e := range bases {
		b, _ := json.Marshal(e)
		b = append(b, '\n') // match json.Encoder behavior
		preSerialized[e] = b
	}
}
