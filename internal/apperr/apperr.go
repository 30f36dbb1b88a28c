// Package apperr defines the error taxonomy shared by all handler and
// adapter packages. Callers wrap these sentinels with fmt.Errorf and %w;
// the HTTP routing layer maps them to status codes with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks missing or malformed caller input (HTTP 400).
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a reference to a dataset that does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")
	// ErrDecode marks a source file that cannot be parsed as tabular data.
	ErrDecode = errors.New("decode error")
	// ErrStorage marks a failed object-store read or write.
	ErrStorage = errors.New("storage error")
	// ErrChannel marks a remote command that failed to dispatch.
	ErrChannel = errors.New("command channel error")
)
