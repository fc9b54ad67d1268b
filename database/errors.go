package database

import "github.com/pkg/errors"

// Sentinel errors jrm callers can match against with errors.Is/errors.As. Each operation wraps
// one of these with github.com/pkg/errors for a stack trace and a human-readable message; the
// sentinel itself carries no message of its own beyond a short category label.
var (
	// ErrConfiguration is returned for a malformed or incomplete connection descriptor.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrConnection is returned when a connection attempt exhausts its retry budget.
	ErrConnection = errors.New("connection failed")

	// ErrMalformedBinding is returned when a bind parameter can't be matched to a placeholder,
	// or a named parameter has no corresponding value.
	ErrMalformedBinding = errors.New("malformed binding")

	// ErrSyntaxOrDialect is returned when a statement can't be parsed or uses a construct the
	// active dialect doesn't support.
	ErrSyntaxOrDialect = errors.New("syntax or dialect error")

	// ErrDeltaRequired is returned when a Spark/Delta MERGE/UPDATE/DELETE is attempted against a
	// table that isn't backed by a Delta table format.
	ErrDeltaRequired = errors.New("operation requires a delta table")

	// ErrStreamAborted is returned by a streaming operation that was interrupted by a context
	// cancellation or a downstream consumer/producer error before completing.
	ErrStreamAborted = errors.New("stream aborted")

	// ErrPoolExhausted is returned when a connection pool checkout times out.
	ErrPoolExhausted = errors.New("connection pool exhausted")
)
