package database

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Isolation names a SQL transaction isolation level.
type Isolation string

const (
	ReadUncommitted Isolation = "READ UNCOMMITTED"
	ReadCommitted   Isolation = "READ COMMITTED"
	RepeatableRead  Isolation = "REPEATABLE READ"
	Serializable    Isolation = "SERIALIZABLE"
)

func (i Isolation) level() (sql.IsolationLevel, bool) {
	switch i {
	case ReadUncommitted:
		return sql.LevelReadUncommitted, true
	case ReadCommitted:
		return sql.LevelReadCommitted, true
	case RepeatableRead:
		return sql.LevelRepeatableRead, true
	case Serializable:
		return sql.LevelSerializable, true
	default:
		return sql.LevelDefault, false
	}
}

// TxState is a Tx's position in the Idle -> Active -> {Committed, RolledBack} state machine.
type TxState int

const (
	TxIdle TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Tx wraps a *sqlx.Tx with the Idle/Active/Committed/RolledBack state spec.md §4.7 names, so a
// caller attempting to commit or roll back a transaction twice gets a clear error instead of the
// driver's bare sql.ErrTxDone.
//
// Against the Spark dialect, Commit and Rollback are no-ops that never error regardless of call
// order: Databricks SQL auto-commits every statement and has no real multi-statement transaction
// to end, so an application written against a real Spark warehouse can call either any number of
// times without consequence. jrm's sparkdriver stand-in happens to be backed by an engine that
// does support real transactions, and still commits/rolls back that underlying transaction so
// writes are actually visible, but callers get the permissive, always-succeeds semantics a real
// deployment would see.
type Tx struct {
	*sqlx.Tx

	mu      sync.Mutex
	state   TxState
	noopEnd bool
}

// BeginTx starts a transaction at the given isolation level. If the backend rejects that
// isolation level (e.g. SQLite, which only has one), a warning is logged and the transaction is
// retried at the driver's default isolation instead of failing outright.
func (db *DB) BeginTx(ctx context.Context, isolation Isolation) (*Tx, error) {
	d, err := db.dialectOf()
	if err != nil {
		return nil, err
	}

	var opts *sql.TxOptions

	if level, ok := isolation.level(); ok {
		opts = &sql.TxOptions{Isolation: level}
	}

	sqlxTx, err := db.BeginTxx(ctx, opts)
	if err != nil && opts != nil {
		db.logger.Warnw("Backend rejected requested isolation level, proceeding at driver default",
			zap.String("isolation", string(isolation)), zap.Error(err))

		sqlxTx, err = db.BeginTxx(ctx, nil)
	}

	if err != nil {
		return nil, errors.Wrap(err, "can't start transaction")
	}

	return &Tx{Tx: sqlxTx, state: TxActive, noopEnd: d.Name == "spark"}, nil
}

// Commit commits the transaction, transitioning Active -> Committed.
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.noopEnd {
		if t.state == TxActive {
			_ = t.Tx.Commit()
		}

		t.state = TxCommitted

		return nil
	}

	if t.state != TxActive {
		return errors.Errorf("can't commit a transaction in state %q", t.state)
	}

	if err := t.Tx.Commit(); err != nil {
		t.state = TxRolledBack
		return errors.Wrap(err, "can't commit transaction")
	}

	t.state = TxCommitted

	return nil
}

// Rollback rolls back the transaction, transitioning Active -> RolledBack. Rolling back a
// transaction that already reached a terminal state is a no-op, mirroring sql.Tx's own tolerance
// for a redundant defer-guard Rollback after a successful Commit.
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.noopEnd {
		if t.state == TxActive {
			_ = t.Tx.Rollback()
		}

		t.state = TxRolledBack

		return nil
	}

	if t.state != TxActive {
		return nil
	}

	if err := t.Tx.Rollback(); err != nil {
		return errors.Wrap(err, "can't roll back transaction")
	}

	t.state = TxRolledBack

	return nil
}

// State reports the transaction's current position in the state machine.
func (t *Tx) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Transaction runs fn inside a transaction at the given isolation level: fn's returning nil
// commits, returning an error or panicking rolls back (a panic is re-raised after rollback). The
// connection's autocommit is restored to on as soon as the transaction reaches a terminal state,
// which happens automatically when the underlying *sql.Tx is committed or rolled back.
func (db *DB) Transaction(ctx context.Context, isolation Isolation, fn func(context.Context, *Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, isolation)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrap(rbErr, err.Error())
		}

		return err
	}

	return tx.Commit()
}
