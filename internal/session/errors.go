package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for session operations. None of these are fatal: every
// failure path leaves prior session state intact.
var (
	// ErrConflict means the authority's copy changed since the document was
	// loaded. Local edits are preserved; an explicit reload resolves it.
	ErrConflict = errors.New("artifact changed on the authority; reload to resolve")

	// ErrUnsavedChanges means an open operation would discard local edits
	// and the caller has not confirmed the discard.
	ErrUnsavedChanges = errors.New("open document has unsaved changes")

	// ErrNoDocument means the operation needs an open document.
	ErrNoDocument = errors.New("no document open")
)

// TransportError wraps a failure to reach the authority. The operation that
// produced it changed no session state.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: authority unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedPatternError reports an uncompilable search expression. It is a
// recoverable notice, not a failure: highlighting degrades to no ranges.
type MalformedPatternError struct {
	Pattern string
	Err     error
}

func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("malformed pattern %q: %v", e.Pattern, e.Err)
}

func (e *MalformedPatternError) Unwrap() error { return e.Err }
