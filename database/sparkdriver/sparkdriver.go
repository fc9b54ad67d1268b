// Package sparkdriver implements an in-process database/sql/driver.Driver that stands in for
// the Spark SQL / Delta Lake backend: no Go client for the Spark Thrift server or the Delta
// transaction log is available anywhere in jrm's dependency set, so this package grounds each
// registered DSN on a real embedded SQL engine (modernc.org/sqlite, already a jrm dependency)
// instead, the same way a migration tool's mock driver backs itself with an in-memory database
// rather than faking the wire protocol.
//
// A Spark cluster is usually addressed by many concurrent sessions sharing one table catalog, so
// every Open call for the same DSN is routed to the same backing *sql.DB, keeping state visible
// across "connections" the way a real cluster would.
package sparkdriver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"

	_ "modernc.org/sqlite"
)

// DriverName is the name this driver is registered under with database/sql.
const DriverName = "jrm-spark"

func init() {
	sql.Register(DriverName, &Driver{})
}

// Driver is a database/sql/driver.Driver that backs every DSN with a dedicated in-memory
// SQLite database, reused across all connections opened for that DSN.
type Driver struct {
	mu       sync.Mutex
	backends map[string]*sql.DB
}

// Open implements driver.Driver.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	c, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}

	return c.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext, letting database/sql reuse one connector
// across all of a *sql.DB's connection attempts instead of re-parsing the DSN every time.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	backend, err := d.backendFor(dsn)
	if err != nil {
		return nil, err
	}

	return &connector{driver: d, backend: backend, dsn: dsn}, nil
}

// backendFor returns the shared *sql.DB backing dsn, opening it on first use.
func (d *Driver) backendFor(dsn string) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.backends == nil {
		d.backends = make(map[string]*sql.DB)
	}

	if db, ok := d.backends[dsn]; ok {
		return db, nil
	}

	// ?cache=shared keeps the in-memory database alive and visible across every *sql.Conn
	// checked out from it, which is what lets concurrent sparkdriver connections for the same
	// DSN observe each other's writes.
	db, err := sql.Open("sqlite", "file:"+dsn+"?mode=memory&cache=shared")
	if err != nil {
		return nil, err
	}

	// A shared in-memory SQLite database is destroyed once its last connection closes; never
	// letting the pool drop to zero keeps the backend alive for the lifetime of the process.
	db.SetMaxIdleConns(1)

	d.backends[dsn] = db

	return db, nil
}

// connector implements driver.Connector, checking out one real *sql.Conn per Connect call and
// wrapping its underlying driver.Conn in a wrappedConn that forwards every call to it, so
// database/sql's own connection pool works against a genuine modernc.org/sqlite connection, just
// reached through the "jrm-spark" driver name.
type connector struct {
	driver  *Driver
	backend *sql.DB
	dsn     string
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	sqlConn, err := c.backend.Conn(ctx)
	if err != nil {
		return nil, err
	}

	conn := &wrappedConn{sqlConn: sqlConn}

	if err := sqlConn.Raw(func(raw interface{}) error {
		conn.raw = raw.(driver.Conn)
		return nil
	}); err != nil {
		_ = sqlConn.Close()
		return nil, err
	}

	return conn, nil
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}
