package dialect

func init() {
	Register(&Dialect{
		Name:                       "sqlite",
		DriverName:                 "sqlite",
		Placeholders:               Question,
		Upsert:                     OnConflictDoUpdate,
		QuoteIdent:                 QuoteIdentDoubleQuote,
		SupportsReturning:          true,
		SupportsParameterizedQuery: true,
		DefaultAutocommit:          true,
	})
}
