package dialect

func init() {
	// IBM Db2 has no Go driver anywhere in jrm's dependency set. The "db2" DriverName below is
	// the name a Db2 *DB reports for dialect lookup; opening a Db2 connection goes through
	// whatever database/sql driver the connection config's Driver field names, and fails loudly
	// with database/sql's own "unknown driver" error if the binary links none. SQL generation (this
	// dialect descriptor) works regardless, since it never touches the driver registry.
	Register(&Dialect{
		Name:                       "db2",
		DriverName:                 "db2",
		Placeholders:               Question,
		Upsert:                     MergeInto,
		QuoteIdent:                 QuoteIdentDoubleQuote,
		SupportsReturning:          false,
		SupportsParameterizedQuery: true,
		DefaultAutocommit:          true,
		MergeSourceTable:           "SYSIBM.SYSDUMMY1",
	})
}
