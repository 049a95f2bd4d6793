package versions

import (
	"errors"
	"fmt"
)

// Sentinels you can check with errors.Is. Both are configuration or data
// problems; retrying with the same inputs cannot succeed.
var (
	ErrEmptyVersionSet         = errors.New("no available versions")
	ErrInvalidRequestedVersion = errors.New("invalid requested version")
)

// ConfigurationError is returned when a base path or the requested version
// cannot produce a selection.
type ConfigurationError struct {
	Kind  error  // ErrEmptyVersionSet or ErrInvalidRequestedVersion
	Path  string // base path, when the error concerns one
	Value any    // offending requested value, for ErrInvalidRequestedVersion
	Msg   string
}

func (e *ConfigurationError) Error() string { return e.Msg }

func (e *ConfigurationError) Unwrap() error { return e.Kind }

func emptyVersionSetError(basePath string) *ConfigurationError {
	return &ConfigurationError{
		Kind: ErrEmptyVersionSet,
		Path: basePath,
		Msg: fmt.Sprintf("No available extension versions found in %s. "+
			"A float-like Galaxy version is expected (e.g. %s/24.1/).", basePath, basePath),
	}
}

func invalidRequestError(value any) *ConfigurationError {
	return &ConfigurationError{
		Kind:  ErrInvalidRequestedVersion,
		Value: value,
		Msg: fmt.Sprintf("Invalid galaxy_version: %v. "+
			`Expected "latest" or a float-like string (e.g. "24.1").`, value),
	}
}
