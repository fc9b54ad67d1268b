package dialect

func init() {
	Register(&Dialect{
		Name:                       "mysql",
		DriverName:                 "mysql",
		Placeholders:               Question,
		Upsert:                     OnDuplicateKeyUpdate,
		QuoteIdent:                 QuoteIdentBacktick,
		SupportsReturning:          false,
		SupportsParameterizedQuery: true,
		DefaultAutocommit:          true,
	})
}
