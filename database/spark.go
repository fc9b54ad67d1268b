package database

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/relio/jrm/database/dialect"
)

// deltaTableRegistry tracks which tables a *DB has been told are backed by a genuine Delta table
// format, as opposed to a plain managed table. Spark SQL accepts UPDATE, DELETE, and MERGE INTO
// syntactically against any table, then fails server-side the moment it discovers the target
// isn't Delta; jrm enforces the same requirement client-side with ErrDeltaRequired instead of
// letting the statement round-trip to the server first.
type deltaTableRegistry struct {
	mu     sync.RWMutex
	tables map[string]bool
}

func (r *deltaTableRegistry) register(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tables == nil {
		r.tables = make(map[string]bool)
	}

	r.tables[table] = true
}

func (r *deltaTableRegistry) isDelta(table string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tables[table]
}

// RegisterDeltaTable marks table as backed by a Delta table format, allowing UPDATE, DELETE, and
// MERGE against it through the Spark dialect. Call this once after creating the table with
// "CREATE TABLE ... USING DELTA" (Databricks SQL warehouses default every managed table to Delta
// already, but jrm has no way to observe that server-side, so it must be told). A no-op for every
// dialect other than Spark.
func (db *DB) RegisterDeltaTable(table string) {
	db.deltaTables.register(table)
}

// requireDelta returns ErrDeltaRequired if d is the Spark dialect and table hasn't been declared
// Delta via RegisterDeltaTable. Every other dialect is unaffected.
func (db *DB) requireDelta(d *dialect.Dialect, table string) error {
	if d.Name != "spark" {
		return nil
	}

	if db.deltaTables.isDelta(table) {
		return nil
	}

	return errors.Wrapf(ErrDeltaRequired, "table %q", table)
}

// ProbeSparkVersion returns the backend version string behind the Spark dialect, querying it
// once per *DB and caching the result for the lifetime of the connection. Real Databricks SQL
// warehouses expose this via "SELECT current_version()"; jrm's in-process sparkdriver stand-in
// has no such function, so the probe falls back to SQLite's own "sqlite_version()" - good enough
// to exercise the cache-once behavior a real deployment depends on to avoid reprobing on every
// statement.
func (db *DB) ProbeSparkVersion(ctx context.Context) (string, error) {
	db.sparkVersion.Lock()
	defer db.sparkVersion.Unlock()

	if db.sparkVersion.value != "" {
		return db.sparkVersion.value, nil
	}

	var version string
	if err := db.QueryRowxContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", errors.Wrap(err, "can't probe spark backend version")
	}

	db.sparkVersion.value = version

	return version, nil
}

