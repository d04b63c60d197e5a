package services

import "fmt"

// ParseError wraps malformed stored JSON. Read paths degrade to the tool's
// default value and log; they never propagate it past the document store.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NormalizationError marks a document the codec could not reconcile, usually
// a missing identity field. Write paths reject it upstream of persistence.
type NormalizationError struct {
	Reason string
}

func (e *NormalizationError) Error() string {
	return "normalization error: " + e.Reason
}

// ImportValidationError aborts a bulk import before any key is written.
type ImportValidationError struct {
	Reason string
}

func (e *ImportValidationError) Error() string {
	return "import validation error: " + e.Reason
}

// ErrConfirmationRequired gates destructive operations (delete customer,
// overwrite on import) behind an explicit caller confirmation.
var ErrConfirmationRequired = fmt.Errorf("confirmation required")
