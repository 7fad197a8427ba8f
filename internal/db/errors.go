package db

import "errors"

// Sentinel errors for backend operations.
var (
	// ErrUnavailable covers connection failures, timeouts and 5xx responses.
	ErrUnavailable = errors.New("db: backend unavailable")
	// ErrBadQuery covers rejected queries and undecodable responses.
	ErrBadQuery = errors.New("db: bad query")
)

// Op constants name the backend operation for error context.
const (
	OpSelect   = "select"
	OpPing     = "admin/ping"
	OpSAdd     = "SADD"
	OpSMembers = "SMEMBERS"
	OpPingKV   = "PING"
)

// Error wraps an underlying error with the operation (and collection, for
// search operations) for diagnostics.
type Error struct {
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	if e.Collection != "" {
		return e.Op + " " + e.Collection + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
