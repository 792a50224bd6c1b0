// Package apperr defines the error taxonomy shared by every layer of
// edgescript: the path compiler, the buffered data manager, the
// interpreter, and the authorization model all surface errors through the
// sentinels declared here rather than ad-hoc error strings.
//
// Callers distinguish error kinds with errors.Is, never by matching
// message text:
//
//	if errors.Is(err, apperr.ErrResolution) { ... }
package apperr

import "errors"

// Sentinel error kinds. Wrap with fmt.Errorf("%w: detail", ErrX) to attach
// context while keeping errors.Is matching intact.
var (
	// ErrParse marks a malformed script line. No mutation occurred; the
	// session is left untouched. Path strings never produce it: every
	// string parses to some Path.
	ErrParse = errors.New("parse error")

	// ErrResolution marks an operator/function token that did not resolve
	// to exactly one endpoint, an unknown function name with no stored
	// body, or invalid arguments to a built-in (e.g. new with a
	// multi-element input). The instruction that raised it did not run.
	ErrResolution = errors.New("resolution error")

	// ErrStorage marks a failure reaching the relational backend. The
	// data manager remains usable; the caller decides whether to retry.
	ErrStorage = errors.New("storage error")

	// ErrAuth marks a malformed credential: a paper or pen value that
	// fails auth.ValidateIdentifier. Reads and writes under a valid Auth
	// are scoped by it and never fail with ErrAuth.
	ErrAuth = errors.New("unauthorized")
)
