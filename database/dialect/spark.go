package dialect

import "github.com/relio/jrm/database/sparkdriver"

func init() {
	Register(&Dialect{
		Name:       "spark",
		DriverName: sparkdriver.DriverName,
		// jrm has no Go client for the real Spark Thrift server or Delta transaction log, so the
		// sparkdriver stand-in backs it with an embedded modernc.org/sqlite engine instead, which
		// speaks neither Delta's native MERGE INTO nor its COPY INTO bulk loader. Upsert is
		// therefore expressed the way SQLite itself supports it ("INSERT ... ON CONFLICT ... DO
		// UPDATE"), not the ANSI MERGE INTO template the other MergeInto dialects use.
		Placeholders:               Question,
		Upsert:                     OnConflictDoUpdate,
		QuoteIdent:                 QuoteIdentBacktick,
		SupportsReturning:          false,
		SupportsParameterizedQuery: true,
		DefaultAutocommit:          true,
	})
}
