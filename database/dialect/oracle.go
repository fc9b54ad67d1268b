package dialect

func init() {
	Register(&Dialect{
		Name:                       "oracle",
		DriverName:                 "oracle",
		Placeholders:               Named,
		Upsert:                     MergeInto,
		QuoteIdent:                 QuoteIdentDoubleQuote,
		SupportsReturning:          false,
		SupportsParameterizedQuery: true,
		DefaultAutocommit:          true,
		MergeSourceTable:           "DUAL",
	})
}
