package siddata

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing Template/Goal/Enrollment. Fatal to the
	// triggering operation, always surfaced to the caller.
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation marks a write that would break a uniqueness
	// invariant. Callers recompute the conflicting key and retry exactly
	// once; a second violation is fatal.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrDataIntegrity marks an inconsistency readers tolerate, e.g. a
	// duplicated property key. Logged, first match used, never a crash.
	ErrDataIntegrity = errors.New("data integrity violation")
)

// PluginError wraps a failure raised inside a plugin hook. Whether it
// propagates depends on the call path: ProcessActivity fails the request,
// Refresh and the batch entry points isolate it.
type PluginError struct {
	Plugin string
	Hook   string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Hook, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }
