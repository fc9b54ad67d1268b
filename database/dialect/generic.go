package dialect

func init() {
	// generic is used for any backend reachable purely through database/sql without jrm knowing
	// its specific SQL dialect. It assumes the least common denominator: "?" placeholders,
	// double-quoted identifiers, and a MERGE-based upsert.
	Register(&Dialect{
		Name:                       "generic",
		DriverName:                 "",
		Placeholders:               Question,
		Upsert:                     MergeInto,
		QuoteIdent:                 QuoteIdentDoubleQuote,
		SupportsReturning:          false,
		SupportsParameterizedQuery: true,
		DefaultAutocommit:          true,
	})
}
