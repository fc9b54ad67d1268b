package database

import "github.com/jmoiron/sqlx"

// ID identifies a row uniquely within its table.
type ID interface {
	String() string
}

// IDer is implemented by every type that has an ID.
type IDer interface {
	ID() ID
}

// Entity is a streamable, identifiable database row. Every type passed through the streaming and
// bulk CRUD helpers (CreateStreamed, UpsertStreamed, DeleteStreamed, YieldAll, ...) implements it.
type Entity interface {
	IDer
}

// EntityFactoryFunc creates a new, empty Entity of a specific type ready to be scanned into.
type EntityFactoryFunc func() Entity

// TableNamer is implemented by types that know their own table name, overriding the default
// derived from their Go type name via strcase.Snake.
type TableNamer interface {
	TableName() string
}

// Scoper is implemented by types whose BuildSelectStmt/BuildWhere should be restricted to a
// subset of rows, e.g. a child table scoped by its parent's foreign key.
type Scoper interface {
	Scope() interface{}
}

// PgsqlOnConflictConstrainter is implemented by types that upsert against a PostgreSQL
// constraint other than the "pk_"-prefixed default primary key name.
type PgsqlOnConflictConstrainter interface {
	PgsqlOnConflictConstraint() string
}

// MergeKeyColumner is implemented by types whose upsert should match on columns other than the
// "id" default: the MERGE INTO match (SQL Server, Oracle, Db2, generic) or the ON CONFLICT target
// (SQLite, Spark).
type MergeKeyColumner interface {
	MergeKeyColumns() []string
}

// TxOrDB is satisfied by both *DB and *sqlx.Tx, letting helpers like InsertObtainID run inside or
// outside an explicit transaction.
type TxOrDB interface {
	sqlx.ExtContext
}

// Upserter is implemented by types whose upsert should update a different set of columns than it
// inserts, e.g. to leave created_at untouched on conflict. Upsert returns a value whose tagged
// fields name the columns to update.
type Upserter interface {
	Upsert() interface{}
}

// EntityConstraint binds a type parameter T to its pointer type, which must implement Entity.
// Generic streaming helpers accept entities by value over a channel and construct a fresh V via
// V(new(T)) when they need an empty instance to scan into or derive a table name from.
type EntityConstraint[T any] interface {
	Entity
	*T
}
