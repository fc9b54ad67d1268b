package dialect

func init() {
	Register(&Dialect{
		Name:                       "postgres",
		DriverName:                 "postgres",
		Placeholders:               Dollar,
		Upsert:                     OnConflictDoUpdate,
		QuoteIdent:                 QuoteIdentDoubleQuote,
		SupportsReturning:          true,
		SupportsParameterizedQuery: true,
		DefaultAutocommit:          true,
	})
}
