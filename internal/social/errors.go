package social

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provider failure so callers can react to the cause
// instead of parsing message text.
type Kind string

const (
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limited"
	KindInvalid     Kind = "invalid"
	KindUnsupported Kind = "unsupported"
	KindUnavailable Kind = "unavailable"
)

// Error is a classified provider failure.
type Error struct {
	Provider string
	Op       string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v (%s)", e.Provider, e.Op, e.Err, e.Kind)
	}
	return fmt.Sprintf("%s %s failed (%s)", e.Provider, e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a classified provider failure.
func NewError(provider, op string, kind Kind, err error) *Error {
	return &Error{Provider: provider, Op: op, Kind: kind, Err: err}
}

// Unsupported reports that a provider does not implement a capability.
func Unsupported(provider, op string) *Error {
	return &Error{Provider: provider, Op: op, Kind: KindUnsupported, Err: errors.New("not supported")}
}

// FromStatus classifies err by the provider's HTTP status code.
func FromStatus(provider, op string, status int, err error) *Error {
	return &Error{Provider: provider, Op: op, Kind: ClassifyStatus(status), Err: err}
}

// ClassifyStatus maps an HTTP status code onto an error Kind.
func ClassifyStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 404:
		return KindNotFound
	case status == 429:
		return KindRateLimited
	case status >= 400 && status < 500:
		return KindInvalid
	default:
		return KindUnavailable
	}
}

// KindOf extracts the Kind from err, or KindUnavailable if err carries none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}

// IsKind reports whether err is a provider failure of the given Kind.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

// MissingEnvError is returned when required configuration is missing.
type MissingEnvError struct {
	Provider  string
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Provider)
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Provider, strings.Join(e.Variables, ", "))
}
