package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/relio/jrm/database/dialect"
)

// AttachPartition moves stagingTable's rows into table as a new partition covering [low, high),
// Db2's fast range-partition onboarding path. Only meaningful against the "db2" dialect; every
// other backend returns ErrSyntaxOrDialect.
func (db *DB) AttachPartition(ctx context.Context, table, partition, stagingTable string, low, high dialect.PartitionBound) Result {
	if err := db.requireDb2(); err != nil {
		return errorResult(err)
	}

	return db.Execute(ctx, dialect.AttachPartitionStmt(table, partition, stagingTable, low, high), nil)
}

// DetachPartition severs partition from table into its own standalone table named intoTable,
// Db2's recommended way to archive or bulk-remove an aged-out range.
func (db *DB) DetachPartition(ctx context.Context, table, partition, intoTable string) Result {
	if err := db.requireDb2(); err != nil {
		return errorResult(err)
	}

	return db.Execute(ctx, dialect.DetachPartitionStmt(table, partition, intoTable), nil)
}

// AddPartition adds a new empty range partition covering [low, high) directly, without a staging
// table to attach from.
func (db *DB) AddPartition(ctx context.Context, table, partition string, low, high dialect.PartitionBound) Result {
	if err := db.requireDb2(); err != nil {
		return errorResult(err)
	}

	return db.Execute(ctx, dialect.AddPartitionStmt(table, partition, low, high), nil)
}

// DropPartition permanently drops partition and its data from table.
func (db *DB) DropPartition(ctx context.Context, table, partition string) Result {
	if err := db.requireDb2(); err != nil {
		return errorResult(err)
	}

	return db.Execute(ctx, dialect.DropPartitionStmt(table, partition), nil)
}

func (db *DB) requireDb2() error {
	d, err := db.dialectOf()
	if err != nil {
		return err
	}

	if d.Name != "db2" {
		return errors.Wrapf(ErrSyntaxOrDialect, "partition management is only supported on db2, not %q", d.Name)
	}

	return nil
}
