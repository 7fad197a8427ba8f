package domain

import "errors"

var (
	// ErrBackendUnavailable signals that the search backend could not be reached
	// (connection refused, timeout, 5xx).
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrBackendQuery signals that the search backend rejected the query.
	ErrBackendQuery = errors.New("search backend query error")
	// ErrInvalidRequest signals malformed request input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrExclusionsDisabled signals that no exclusion store is configured.
	ErrExclusionsDisabled = errors.New("exclusion store disabled")
)
