// Package artifacterror defines the typed errors raised while persisting and
// loading model artifacts and while reading the transaction history.
package artifacterror

import "fmt"

// CorruptArtifactError reports an artifact that exists but cannot be decoded.
// It is a genuine fault: callers must not treat it as "no artifact".
type CorruptArtifactError struct {
	Path string
	Kind string
	Err  error
}

func (e *CorruptArtifactError) Error() string {
	return fmt.Sprintf("corrupt %s artifact at %s: %v", e.Kind, e.Path, e.Err)
}

func (e *CorruptArtifactError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError reports an artifact written by an incompatible trainer.
type SchemaMismatchError struct {
	Path   string
	Kind   string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s artifact at %s does not match the expected schema: %s",
		e.Kind, e.Path, e.Reason)
}

// WriteError wraps a failure to persist an artifact. The previous artifact,
// if any, is left in place.
type WriteError struct {
	Path string
	Kind string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s artifact to %s: %v", e.Kind, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SourceError wraps a failure to read the historical transaction set.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("failed to read transactions from %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
