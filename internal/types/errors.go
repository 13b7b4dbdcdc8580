package types

import (
	"errors"
	"fmt"
)

var (
	ErrClosed          = errors.New("greenrank: service closed")
	ErrThrottleFull    = errors.New("greenrank: throttle queue at capacity")
	ErrNoData          = errors.New("greenrank: no data available")
	ErrInvalidConfig   = errors.New("greenrank: invalid configuration")
	ErrSourceTimeout   = errors.New("greenrank: source request timed out")
	ErrSinkUnavailable = errors.New("greenrank: snapshot sink unavailable")
)

// ErrorKind classifies a source failure at its origin. Severity is derived
// from the kind, never inferred later from error message text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindTimeout
	KindUnauthorized
	KindServer
	KindMalformed
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// SourceError wraps a failure from a data source with the operation that
// produced it and its typed kind.
type SourceError struct {
	Op     string
	Source DataSource
	Kind   ErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s on %s [%s]: %v", e.Op, e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func NewSourceError(op string, source DataSource, kind ErrorKind, err error) *SourceError {
	return &SourceError{Op: op, Source: source, Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from an error chain, KindUnknown if absent.
func KindOf(err error) ErrorKind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrSourceTimeout) {
		return KindTimeout
	}
	return KindUnknown
}

func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsRetryable reports whether an operation that produced err is worth
// re-invoking. Auth and validation failures will not heal on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrClosed) || errors.Is(err, ErrNoData) {
		return false
	}
	switch KindOf(err) {
	case KindUnauthorized, KindValidation, KindMalformed:
		return false
	}
	return true
}
