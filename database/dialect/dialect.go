// Package dialect describes the per-backend SQL differences jrm has to paper over: how
// placeholders are spelled, how identifiers are quoted, how an upsert is phrased, and which
// "database/sql" driver name a backend is registered under.
package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderStyle identifies how a backend expects bound parameters to be spelled in SQL text.
type PlaceholderStyle int

const (
	// Question is MySQL/SQLite/Db2/generic style: "?" for every parameter, order-dependent.
	Question PlaceholderStyle = iota
	// Dollar is PostgreSQL style: "$1", "$2", ... order-dependent, but repeatable.
	Dollar
	// Named is Oracle style: ":name" placeholders.
	Named
	// AtSign is SQL Server's native "@p1", "@p2", ... style.
	AtSign
)

// UpsertStyle identifies the SQL construct a dialect uses to express "insert, or update on conflict".
type UpsertStyle int

const (
	// OnDuplicateKeyUpdate is MySQL/MariaDB's "ON DUPLICATE KEY UPDATE col = VALUES(col)".
	OnDuplicateKeyUpdate UpsertStyle = iota
	// OnConflictDoUpdate is PostgreSQL/SQLite's "ON CONFLICT ... DO UPDATE SET col = EXCLUDED.col".
	OnConflictDoUpdate
	// MergeInto is Oracle/Db2/SQL Server/generic "MERGE INTO ... USING (SELECT ...) AS source ...".
	MergeInto
)

// Dialect describes everything jrm's SQL generators need to know about one backend.
type Dialect struct {
	// Name is the backend tag used in connection descriptors and dialect.Lookup, e.g. "postgres".
	Name string

	// DriverName is the name the backend's driver.Driver is registered under in database/sql,
	// i.e. what sql.Open's first argument would be.
	DriverName string

	Placeholders PlaceholderStyle
	Upsert       UpsertStyle

	// QuoteIdent quotes a single identifier (table or column name) for safe inclusion in SQL text.
	QuoteIdent func(ident string) string

	// SupportsReturning indicates whether "INSERT ... RETURNING col" can be used to obtain a
	// generated ID instead of a driver-level LastInsertId call.
	SupportsReturning bool

	// SupportsParameterizedQuery indicates whether the driver honors bound query parameters at
	// all. Every built-in dialect, the generic fallback included, sets it to true.
	SupportsParameterizedQuery bool

	// DefaultAutocommit is whether a freshly opened connection starts outside of a transaction.
	DefaultAutocommit bool

	// MergeSourceTable is the table a MergeInto dialect's "USING (SELECT ...)" source subquery
	// must select FROM, since Oracle and Db2 reject a bare SELECT with no FROM clause (Oracle:
	// ORA-00923). Set to "DUAL" for Oracle and "SYSIBM.SYSDUMMY1" for Db2. Left empty for
	// backends (SQL Server, Spark) whose SELECT needs no FROM clause.
	MergeSourceTable string
}

// BindVar returns the placeholder text for the n-th (1-indexed) bound parameter named name.
func (d Dialect) BindVar(n int, name string) string {
	switch d.Placeholders {
	case Dollar:
		return "$" + strconv.Itoa(n)
	case Named:
		return ":" + name
	case AtSign:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// QuoteIdentDoubleQuote quotes ident ANSI-SQL style, doubling embedded quote characters.
func QuoteIdentDoubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteIdentBacktick quotes ident MySQL style, doubling embedded backticks.
func QuoteIdentBacktick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// QuoteIdentBracket quotes ident SQL Server style.
func QuoteIdentBracket(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

// registry holds every Dialect registered via Register, keyed by Name.
var registry = make(map[string]*Dialect)

// Register adds d to the registry, keyed by d.Name. Intended to be called from the init()
// function of each backend-specific file in this package.
func Register(d *Dialect) {
	registry[d.Name] = d
}

// Lookup returns the Dialect registered under name, or an error if none is.
func Lookup(name string) (*Dialect, error) {
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}

	return d, nil
}

// LookupByDriverName returns the Dialect registered under the "database/sql" driver name it
// wraps, e.g. the mssql dialect for "sqlserver", or an error if none is registered for it.
func LookupByDriverName(driverName string) (*Dialect, error) {
	for _, d := range registry {
		if d.DriverName != "" && d.DriverName == driverName {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: driver %q", ErrUnknownDialect, driverName)
}

// Names returns the names of every registered dialect, for use in error messages and config
// validation.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}
