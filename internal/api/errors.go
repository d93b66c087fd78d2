package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"arenda/internal/pricing"
)

var (
	// ErrNetwork covers transport failures, timeouts, 5xx and unreadable responses.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized means the bearer token is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")

	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRange is the server rejecting a booking date range.
	ErrInvalidRange = pricing.ErrInvalidRange
)

// codeInvalidRange is the error code the bookings endpoint reports for end < start.
const codeInvalidRange = "INVALID_RANGE"

// ValidationError is input the server rejected. Message is shown verbatim.
type ValidationError struct {
	Op      string
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RequestError ties a failed call to one of the sentinel kinds above.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (http %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ServerMessage returns the message the server attached to err, if any.
func ServerMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr.Message
	}
	return ""
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

func networkError(op string, err error) error {
	return &RequestError{Op: op, Kind: ErrNetwork, Err: err}
}

// classify maps a non-2xx response onto the error taxonomy.
func classify(op string, status int, body errorBody) error {
	msg := body.text()
	switch {
	case status >= http.StatusInternalServerError:
		return &RequestError{Op: op, Status: status, Message: msg, Kind: ErrNetwork}
	case op == opLogin && status >= http.StatusBadRequest:
		// login reports every rejection as bad credentials, keeping the server text
		return &RequestError{Op: op, Status: status, Message: msg, Kind: ErrInvalidCredentials}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &RequestError{Op: op, Status: status, Message: msg, Kind: ErrUnauthorized}
	case strings.EqualFold(body.Code, codeInvalidRange):
		return &RequestError{Op: op, Status: status, Message: msg, Kind: ErrInvalidRange}
	case status >= http.StatusBadRequest:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &ValidationError{Op: op, Status: status, Message: msg}
	default:
		return &RequestError{Op: op, Status: status, Message: msg, Kind: ErrNetwork, Err: fmt.Errorf("unexpected status")}
	}
}
