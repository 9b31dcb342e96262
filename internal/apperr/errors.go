// Package apperr defines the error taxonomy shared by records and the catalog.
// Callers match with errors.Is; every returned error wraps exactly one of these.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrFormat covers unparsable documents and non-ISO date strings.
	ErrFormat = errors.New("format error")
	// ErrSchema is a required configuration field that is absent.
	ErrSchema = errors.New("schema error")
	// ErrValidation is a value outside its allowed range or of the wrong kind.
	ErrValidation = errors.New("validation error")
	// ErrDateOrder is a plan date not after the added date, or an added date in the future.
	ErrDateOrder = errors.New("date order error")

	ErrKeyNotFound     = errors.New("key not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrKeyNotSupported = errors.New("key not supported")

	// ErrInconsistent signals a broken internal invariant rather than bad input.
	ErrInconsistent = errors.New("internal inconsistency")
)
