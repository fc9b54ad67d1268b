package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relio/jrm/backoff"
	"github.com/relio/jrm/retry"
)

// Pool is the interface PoolFacade dispatches to: eagerPool and resetPool are its two backends.
type Pool interface {
	acquire(ctx context.Context) (*PoolHandle, error)
}

// PoolHandle is a checked-out connection scoped to one acquire/release cycle. Release is safe to
// call more than once and is guaranteed to run via PoolFacade.Acquire's caller using defer.
type PoolHandle struct {
	Conn *sqlx.Conn

	release func()
	once    sync.Once
}

// Release returns the connection to its pool. Safe to call multiple times.
func (h *PoolHandle) Release() {
	h.once.Do(h.release)
}

// PoolFacade is the single entry point spec.md §4.6 describes, fronting either the eager-pool or
// the reset-on-return backend depending on Options.PoolStrategy.
type PoolFacade struct {
	db      *DB
	backend Pool
}

// NewPoolFacade builds the PoolFacade configured for db's Options.PoolStrategy.
func NewPoolFacade(db *DB) *PoolFacade {
	if db.Options.PoolStrategy == "reset" {
		return &PoolFacade{db: db, backend: newResetPool(db)}
	}

	return &PoolFacade{db: db, backend: newEagerPool(db)}
}

// Acquire returns a scoped connection handle. Callers must call Release on it, typically via
// defer, on every exit path.
func (f *PoolFacade) Acquire(ctx context.Context) (*PoolHandle, error) {
	return f.backend.acquire(ctx)
}

// Transaction acquires a connection, switches it to autocommit=off at the given isolation level,
// runs fn, and commits on success or rolls back on error or panic, restoring autocommit=on before
// the connection is released back to the pool.
func (f *PoolFacade) Transaction(ctx context.Context, isolation Isolation, fn func(context.Context, *Tx) error) error {
	handle, err := f.Acquire(ctx)
	if err != nil {
		return err
	}
	defer handle.Release()

	sqlxTx, err := handle.Conn.BeginTxx(ctx, txOptionsFor(isolation))
	if err != nil {
		sqlxTx, err = handle.Conn.BeginTxx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "can't start transaction")
		}
	}

	d, err := f.db.dialectOf()
	if err != nil {
		return err
	}

	tx := &Tx{Tx: sqlxTx, state: TxActive, noopEnd: d.Name == "spark"}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrap(rbErr, err.Error())
		}

		return err
	}

	return tx.Commit()
}

// Operation is one step of an ExecuteBatch transaction: Method is "execute" for DML/DDL or
// "query" for a SELECT, SQL is the statement text, and Args are bound parameters normalized the
// same way DB.Execute/DB.Query normalize them.
type Operation struct {
	Method string
	SQL    string
	Args   any
}

// ExecuteBatch runs ops in order inside one transaction at the given isolation level, returning
// each step's Result; the whole batch commits only if every step succeeds.
func (f *PoolFacade) ExecuteBatch(ctx context.Context, isolation Isolation, ops []Operation) ([]Result, error) {
	results := make([]Result, 0, len(ops))

	err := f.db.Transaction(ctx, isolation, func(ctx context.Context, tx *Tx) error {
		d, derr := f.db.dialectOf()
		if derr != nil {
			return derr
		}

		for _, op := range ops {
			rewritten, values, nerr := NormalizePlaceholders(op.SQL, op.Args, d.Placeholders)
			if nerr != nil {
				return nerr
			}

			switch op.Method {
			case "query":
				rows, qerr := tx.QueryxContext(ctx, rewritten, values...)
				if qerr != nil {
					return qerr
				}

				result, serr := scanRows(rows)
				if serr != nil {
					return serr
				}

				results = append(results, result)
			default:
				res, eerr := tx.ExecContext(ctx, rewritten, values...)
				if eerr != nil {
					return eerr
				}

				count, cerr := res.RowsAffected()
				if cerr != nil {
					return cerr
				}

				results = append(results, Result{Status: 0, Message: "OK", Count: count})
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

func txOptionsFor(isolation Isolation) *sql.TxOptions {
	level, ok := isolation.level()
	if !ok {
		return nil
	}

	return &sql.TxOptions{Isolation: level}
}

// eagerPool pre-allocates Options.PoolMinConnections dedicated connections, recycling ones that
// have sat idle past Options.PoolIdleTimeout and probing liveness with a retry-guarded ping before
// handing one out. It keeps its own idle list of checked-out *sqlx.Conn values rather than relying
// on database/sql's implicit pool.
type eagerPool struct {
	db *DB

	mu    sync.Mutex
	idle  []*pooledConn
	count int
}

type pooledConn struct {
	conn     *sqlx.Conn
	lastUsed time.Time
}

func newEagerPool(db *DB) *eagerPool {
	p := &eagerPool{db: db}

	for i := 0; i < db.Options.PoolMinConnections; i++ {
		conn, err := db.Connx(context.Background())
		if err != nil {
			db.logger.Warnw("Can't pre-allocate eager pool connection", zap.Error(err))
			continue
		}

		p.idle = append(p.idle, &pooledConn{conn: conn, lastUsed: time.Now()})
		p.count++
	}

	return p
}

func (p *eagerPool) acquire(ctx context.Context) (*PoolHandle, error) {
	deadline := time.Now().Add(p.db.Options.PoolCheckoutTimeout)

	for {
		if pc := p.takeIdle(); pc != nil {
			if p.isStale(pc) {
				_ = pc.conn.Close()
				p.mu.Lock()
				p.count--
				p.mu.Unlock()
			} else if p.probe(ctx, pc) {
				return p.handle(pc.conn), nil
			} else {
				_ = pc.conn.Close()
				p.mu.Lock()
				p.count--
				p.mu.Unlock()
			}
		}

		p.mu.Lock()
		underMin := p.count < p.db.Options.PoolMinConnections
		p.mu.Unlock()

		if underMin {
			conn, err := p.db.Connx(ctx)
			if err == nil {
				p.mu.Lock()
				p.count++
				p.mu.Unlock()

				return p.handle(conn), nil
			}
		}

		if time.Now().After(deadline) {
			return nil, errors.Wrapf(ErrPoolExhausted, "no connection available after %s", p.db.Options.PoolCheckoutTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (p *eagerPool) takeIdle() *pooledConn {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.idle) == 0 {
		return nil
	}

	pc := p.idle[len(p.idle)-1]
	p.idle = p.idle[:len(p.idle)-1]

	return pc
}

func (p *eagerPool) isStale(pc *pooledConn) bool {
	return time.Since(pc.lastUsed) > p.db.Options.PoolIdleTimeout
}

func (p *eagerPool) probe(ctx context.Context, pc *pooledConn) bool {
	err := retry.WithBackoff(
		ctx,
		func(ctx context.Context) error { return pc.conn.PingContext(ctx) },
		retry.Retryable,
		backoff.NewExponentialWithJitter(10*time.Millisecond, 200*time.Millisecond),
		retry.Settings{Timeout: time.Second},
	)

	return err == nil
}

func (p *eagerPool) handle(conn *sqlx.Conn) *PoolHandle {
	return &PoolHandle{
		Conn: conn,
		release: func() {
			p.mu.Lock()
			p.idle = append(p.idle, &pooledConn{conn: conn, lastUsed: time.Now()})
			p.mu.Unlock()
		},
	}
}

// resetPool checks a connection out of database/sql's own pool on demand and, on return, resets
// it to autocommit=on with any open transaction rolled back rather than keeping a dedicated idle
// set of its own.
type resetPool struct {
	db *DB
}

func newResetPool(db *DB) *resetPool {
	return &resetPool{db: db}
}

func (p *resetPool) acquire(ctx context.Context) (*PoolHandle, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "can't check out connection")
	}

	return &PoolHandle{
		Conn: conn,
		release: func() {
			resetCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, _ = conn.ExecContext(resetCtx, "ROLLBACK")
			_ = conn.Close()
		},
	}, nil
}

func scanRows(rows *sqlx.Rows) (Result, error) {
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	data := make([]map[string]any, 0)

	for rows.Next() {
		record := make(map[string]any, len(columns))
		if err := rows.MapScan(record); err != nil {
			return Result{}, err
		}

		data = append(data, record)
	}

	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	return Result{Status: 0, Message: "OK", Data: data, Columns: columns, Count: int64(len(data))}, nil
}
