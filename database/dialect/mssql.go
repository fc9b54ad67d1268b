package dialect

func init() {
	Register(&Dialect{
		Name:                       "mssql",
		DriverName:                 "sqlserver",
		Placeholders:               AtSign,
		Upsert:                     MergeInto,
		QuoteIdent:                 QuoteIdentBracket,
		SupportsReturning:          false,
		SupportsParameterizedQuery: true,
		DefaultAutocommit:          true,
	})
}
