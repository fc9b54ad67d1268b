package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"github.com/go-sql-driver/mysql"
	"github.com/relio/jrm/backoff"
	"github.com/relio/jrm/logging"
	"github.com/relio/jrm/retry"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"time"
)

// Driver names as automatically registered in the database/sql package by themselves.
const (
	MySQL      string = "mysql"
	PostgreSQL string = "postgres"
	SQLite     string = "sqlite"
	SQLServer  string = "sqlserver"
	Oracle     string = "oracle"
	Db2        string = "db2"
	Spark      string = "jrm-spark"
)

// dsnConnector adapts a plain (driver name, DSN) pair into a driver.Connector, the same role
// database/sql's own unexported dsnConnector plays inside sql.Open. It lets every backend whose
// client library only exposes a driver.Driver (modernc.org/sqlite, go-mssqldb, go-ora,
// sparkdriver, and any driver registered for the generic/Db2 fallback) still be wrapped in a
// RetryConnector.
type dsnConnector struct {
	dsn    string
	driver driver.Driver
}

func (t dsnConnector) Connect(context.Context) (driver.Conn, error) {
	return t.driver.Open(t.dsn)
}

func (t dsnConnector) Driver() driver.Driver {
	return t.driver
}

// dsnConnectorFor resolves the driver.Driver already registered under driverName with
// database/sql and wraps it with dsn into a driver.Connector.
func dsnConnectorFor(driverName, dsn string) (driver.Connector, error) {
	probe, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = probe.Close() }()

	return dsnConnector{dsn: dsn, driver: probe.Driver()}, nil
}

// cmpPort returns port if it is non-zero, otherwise fallback.
func cmpPort(port, fallback int) int {
	if port == 0 {
		return fallback
	}

	return port
}

type InitConnFunc func(context.Context, driver.Conn) error

// RetryConnectorCallbacks holds optional hooks invoked by RetryConnector around connection
// establishment, allowing a backend-specific NewDbFromConfig branch to run per-session setup
// (e.g. MySQL's wsrep_sync_wait) or observe retry activity without subclassing RetryConnector.
type RetryConnectorCallbacks struct {
	// OnInitConn runs once per successfully established driver.Conn, before it is handed back
	// to database/sql. A non-nil error causes the connection to be discarded and retried.
	OnInitConn InitConnFunc

	// OnError is called for every failed connection attempt, in addition to RetryConnector's
	// own logging.
	OnError retry.OnErrorFunc

	// OnSuccess is called once a connection attempt succeeds, in addition to RetryConnector's
	// own logging.
	OnSuccess retry.OnSuccessFunc
}

// RetryConnector wraps driver.Connector with retry logic.
type RetryConnector struct {
	driver.Connector

	callbacks RetryConnectorCallbacks

	logger *logging.Logger
}

// NewConnector creates a fully initialized RetryConnector from the given args.
func NewConnector(c driver.Connector, logger *logging.Logger, callbacks RetryConnectorCallbacks) *RetryConnector {
	return &RetryConnector{Connector: c, logger: logger, callbacks: callbacks}
}

// Connect implements part of the driver.Connector interface.
func (c RetryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	var conn driver.Conn
	err := errors.Wrap(retry.WithBackoff(
		ctx,
		func(ctx context.Context) (err error) {
			conn, err = c.Connector.Connect(ctx)
			if err == nil && c.callbacks.OnInitConn != nil {
				if err = c.callbacks.OnInitConn(ctx, conn); err != nil {
					// We're going to retry this, so just don't bother whether Close() fails!
					_ = conn.Close()
				}
			}

			return
		},
		shouldRetry,
		backoff.NewExponentialWithJitter(time.Millisecond*128, time.Minute*1),
		retry.Settings{
			Timeout: 5 * time.Minute,
			OnError: func(elapsed time.Duration, attempt uint64, err, lastErr error) {
				if c.callbacks.OnError != nil {
					c.callbacks.OnError(elapsed, attempt, err, lastErr)
				}

				if lastErr == nil || err.Error() != lastErr.Error() {
					c.logger.Warnw("Can't connect to database. Retrying", zap.Error(err))
				}
			},
			OnSuccess: func(elapsed time.Duration, attempt uint64, lastErr error) {
				if c.callbacks.OnSuccess != nil {
					c.callbacks.OnSuccess(elapsed, attempt, lastErr)
				}

				if attempt > 0 {
					c.logger.Infow("Reconnected to database",
						zap.Duration("after", elapsed), zap.Uint64("attempts", attempt+1))
				}
			},
		},
	), "can't connect to database")
	return conn, err
}

// Driver implements part of the driver.Connector interface.
func (c RetryConnector) Driver() driver.Driver {
	return c.Connector.Driver()
}

// Register sets the default mysql logger to the given one.
func Register(logger *logging.Logger) {
	_ = mysql.SetLogger(mysqlLogger(func(v ...interface{}) { logger.Debug(v...) }))
}

// mysqlLogger is an adapter that allows ordinary functions to be used as a logger for mysql.SetLogger.
type mysqlLogger func(v ...interface{})

// Print implements the mysql.Logger interface.
func (log mysqlLogger) Print(v ...interface{}) {
	log(v)
}

func shouldRetry(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	return retry.Retryable(err)
}
