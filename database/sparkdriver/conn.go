package sparkdriver

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

// wrappedConn forwards the driver.Conn surface to the real modernc.org/sqlite connection
// backing this DSN, while keeping the *sql.Conn checkout alive for as long as this connection
// is open so that closing it returns the checkout to the shared backend pool instead of
// destroying the in-memory database.
type wrappedConn struct {
	sqlConn *sql.Conn
	raw     driver.Conn
}

func (c *wrappedConn) Prepare(query string) (driver.Stmt, error) {
	return c.raw.Prepare(query)
}

func (c *wrappedConn) Close() error {
	return c.sqlConn.Close()
}

func (c *wrappedConn) Begin() (driver.Tx, error) { //nolint:staticcheck // part of driver.Conn
	//nolint:staticcheck // legacy driver.Conn method, kept for interface compliance
	if b, ok := c.raw.(driver.ConnBeginTx); ok {
		return b.BeginTx(context.Background(), driver.TxOptions{})
	}

	type legacyBeginner interface {
		Begin() (driver.Tx, error)
	}

	return c.raw.(legacyBeginner).Begin()
}

func (c *wrappedConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if b, ok := c.raw.(driver.ConnBeginTx); ok {
		return b.BeginTx(ctx, opts)
	}

	return c.Begin()
}

func (c *wrappedConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if p, ok := c.raw.(driver.ConnPrepareContext); ok {
		return p.PrepareContext(ctx, query)
	}

	return c.Prepare(query)
}

func (c *wrappedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if e, ok := c.raw.(driver.ExecerContext); ok {
		return e.ExecContext(ctx, query, args)
	}

	return nil, driver.ErrSkip
}

func (c *wrappedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if q, ok := c.raw.(driver.QueryerContext); ok {
		return q.QueryContext(ctx, query, args)
	}

	return nil, driver.ErrSkip
}

func (c *wrappedConn) Ping(ctx context.Context) error {
	if p, ok := c.raw.(driver.Pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

func (c *wrappedConn) CheckNamedValue(nv *driver.NamedValue) error {
	if chk, ok := c.raw.(driver.NamedValueChecker); ok {
		return chk.CheckNamedValue(nv)
	}

	return driver.ErrSkip
}

var (
	_ driver.Conn               = (*wrappedConn)(nil)
	_ driver.ConnPrepareContext = (*wrappedConn)(nil)
	_ driver.ConnBeginTx        = (*wrappedConn)(nil)
	_ driver.ExecerContext      = (*wrappedConn)(nil)
	_ driver.QueryerContext     = (*wrappedConn)(nil)
	_ driver.Pinger             = (*wrappedConn)(nil)
	_ driver.NamedValueChecker  = (*wrappedConn)(nil)
)
