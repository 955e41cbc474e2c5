package model

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports user input rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConnectorError reports a failed search or profile fetch: transport
// failure, non-2xx status, or an unparseable payload.
type ConnectorError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ConnectorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("connector %s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("connector %s: %v", e.Provider, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// EnrichmentError reports a completion call that failed at the network or
// provider level.
type EnrichmentError struct {
	Mode string
	Err  error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich %s: %v", e.Mode, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// MalformedCompletionError reports a completion that does not match the
// structured shape the mode requires. No partial result accompanies it.
type MalformedCompletionError struct {
	Mode string
	Raw  string
	Err  error
}

func (e *MalformedCompletionError) Error() string {
	return fmt.Sprintf("malformed %s completion: %v", e.Mode, e.Err)
}

func (e *MalformedCompletionError) Unwrap() error { return e.Err }

// StorageError reports a record store I/O failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConfigurationError lists every missing or invalid setting found at startup.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "config: " + strings.Join(e.Problems, "; ")
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsConnector reports whether err is or wraps a ConnectorError.
func IsConnector(err error) bool {
	var target *ConnectorError
	return errors.As(err, &target)
}

// IsEnrichment reports whether err is or wraps an EnrichmentError.
func IsEnrichment(err error) bool {
	var target *EnrichmentError
	return errors.As(err, &target)
}

// IsMalformedCompletion reports whether err is or wraps a MalformedCompletionError.
func IsMalformedCompletion(err error) bool {
	var target *MalformedCompletionError
	return errors.As(err, &target)
}

// IsStorage reports whether err is or wraps a StorageError.
func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
