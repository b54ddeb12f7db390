package domain

import "fmt"

// FragmentParseError reports a located fragment that lacks a mandatory field
// or carries one in an unusable shape. The fragment is skipped.
type FragmentParseError struct {
	Offset int
	Field  string
	Reason string
}

func (e *FragmentParseError) Error() string {
	return fmt.Sprintf("fragment at offset %d: field %q %s", e.Offset, e.Field, e.Reason)
}

// RetrievalError reports a non-success response from the source page.
type RetrievalError struct {
	URL        string
	StatusCode int
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s: unexpected status %d", e.URL, e.StatusCode)
}

// PersistenceError wraps a failure of a sink to store the record set.
type PersistenceError struct {
	Sink string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist to %s: %v", e.Sink, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
