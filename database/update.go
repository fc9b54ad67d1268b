package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/relio/jrm/com"
)

// UpdateStatement is the interface for building UPDATE statements.
type UpdateStatement interface {
	// SetTable sets the table name for the UPDATE statement.
	// Overrides the table name provided by the entity.
	SetTable(table string) UpdateStatement

	// SetColumns sets the columns to be updated.
	SetColumns(columns ...string) UpdateStatement

	// SetExcludedColumns sets the columns to be excluded from the UPDATE statement.
	// Excludes also columns set by SetColumns.
	SetExcludedColumns(columns ...string) UpdateStatement

	// SetWhere sets the where clause for the UPDATE statement.
	SetWhere(where string) UpdateStatement

	// Entity returns the entity associated with the UPDATE statement.
	Entity() Entity

	// Table returns the table name for the UPDATE statement.
	Table() string

	// Columns returns the columns to be updated.
	Columns() []string

	// ExcludedColumns returns the columns to be excluded from the UPDATE statement.
	ExcludedColumns() []string

	// Where returns the where clause for the UPDATE statement.
	Where() string
}

// NewUpdateStatement returns a new updateStatement for the given entity.
func NewUpdateStatement(entity Entity) UpdateStatement {
	return &updateStatement{
		entity: entity,
	}
}

// updateStatement is the default implementation of the UpdateStatement interface.
type updateStatement struct {
	entity          Entity
	table           string
	columns         []string
	excludedColumns []string
	where           string
}

func (u *updateStatement) SetTable(table string) UpdateStatement {
	u.table = table

	return u
}

func (u *updateStatement) SetColumns(columns ...string) UpdateStatement {
	u.columns = columns

	return u
}

func (u *updateStatement) SetExcludedColumns(columns ...string) UpdateStatement {
	u.excludedColumns = columns

	return u
}

func (u *updateStatement) SetWhere(where string) UpdateStatement {
	u.where = where

	return u
}

func (u *updateStatement) Entity() Entity {
	return u.entity
}

func (u *updateStatement) Table() string {
	return u.table
}

func (u *updateStatement) Columns() []string {
	return u.columns
}

func (u *updateStatement) ExcludedColumns() []string {
	return u.excludedColumns
}

func (u *updateStatement) Where() string {
	return u.where
}

// UpdateOption is a functional option for UpdateStreamed().
type UpdateOption func(opts *updateOptions)

// WithUpdateStatement sets the UPDATE statement to be used for updating entities.
func WithUpdateStatement(stmt UpdateStatement) UpdateOption {
	return func(opts *updateOptions) {
		opts.stmt = stmt
	}
}

// WithOnUpdate sets the callback functions to be called after a successful UPDATE.
func WithOnUpdate(onUpdate ...OnSuccess[any]) UpdateOption {
	return func(opts *updateOptions) {
		opts.onUpdate = append(opts.onUpdate, onUpdate...)
	}
}

// updateOptions stores the options for UpdateStreamed.
type updateOptions struct {
	stmt     UpdateStatement
	onUpdate []OnSuccess[any]
}

// UpdateStreamed updates entities from the given channel in the database, one transaction per
// batch. Bulk size is controlled via Options.MaxRowsPerTransaction and concurrency via
// Options.MaxConnectionsPerTable, mirroring the DB.UpdateStreamed method used by the non-generic
// entity surface. A WithUpdateStatement option lets the caller override the table, columns, or
// match condition; absent one, entities are matched and updated by their "id" column.
func UpdateStreamed[T any, V EntityConstraint[T]](
	ctx context.Context,
	db *DB,
	entities <-chan T,
	options ...UpdateOption,
) error {
	var opts updateOptions
	for _, option := range options {
		option(&opts)
	}

	forward := entityChannel[T, V](ctx, entities)

	first, rest, err := com.CopyFirst(ctx, forward)
	if err != nil {
		return errors.Wrap(err, "can't copy first entity")
	}

	stmt := opts.stmt
	if stmt == nil {
		stmt = NewUpdateStatement(first).SetWhere(`"id" = :id`)
	}

	query, err := db.QueryBuilder().UpdateStatement(stmt)
	if err != nil {
		return errors.Wrap(err, "can't build update statement")
	}

	sem := db.GetSemaphoreForTable(TableName(first))

	return db.NamedBulkExecTx(
		ctx, query, db.Options.MaxRowsPerTransaction, sem, rest, onUpdateToEntity(opts.onUpdate)...,
	)
}

// onUpdateToEntity adapts OnSuccess[any] callbacks, the type WithOnUpdate accepts, to the
// OnSuccess[Entity] signature NamedBulkExecTx requires.
func onUpdateToEntity(callbacks []OnSuccess[any]) []OnSuccess[Entity] {
	adapted := make([]OnSuccess[Entity], 0, len(callbacks))

	for _, callback := range callbacks {
		callback := callback

		adapted = append(adapted, func(ctx context.Context, affectedRows []Entity) error {
			rows := make([]any, len(affectedRows))
			for i, row := range affectedRows {
				rows[i] = row
			}

			return callback(ctx, rows)
		})
	}

	return adapted
}
