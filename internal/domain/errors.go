package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed input record or parameter. A
// reconciliation that hits one fails as a whole.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError with a formatted reason.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DataSourceError wraps a failed fetch from one of the ledgers.
type DataSourceError struct {
	Source SourceSystem
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("fetch %s payments: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsDataSource(err error) bool {
	var de *DataSourceError
	return errors.As(err, &de)
}
