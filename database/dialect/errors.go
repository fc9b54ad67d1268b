package dialect

import "errors"

// ErrUnknownDialect is returned by Lookup when asked for a dialect name nothing registered.
var ErrUnknownDialect = errors.New("unknown dialect")
