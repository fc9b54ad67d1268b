package dialect

import "fmt"

// PartitionBound is one boundary of a Db2 range partition, expressed as the literal text Db2
// expects in an ATTACH/ADD PARTITION clause (e.g. a quoted date, or "MINVALUE"/"MAXVALUE").
type PartitionBound string

// AttachPartitionStmt builds the DDL for Db2's two-phase ATTACH PARTITION: the partition's data
// comes from an existing table (stagingTable) with a matching column layout, and the range is
// re-validated before the partition becomes visible.
func AttachPartitionStmt(table, partition, stagingTable string, low, high PartitionBound) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ATTACH PARTITION %s STARTING FROM (%s) ENDING AT (%s) FROM %s",
		QuoteIdentDoubleQuote(table), QuoteIdentDoubleQuote(partition), low, high, QuoteIdentDoubleQuote(stagingTable),
	)
}

// DetachPartitionStmt builds the DDL that severs a partition from table into its own standalone
// table, the Db2-recommended way to archive or bulk-delete an aged-out range without scanning it.
func DetachPartitionStmt(table, partition, intoTable string) string {
	return fmt.Sprintf(
		"ALTER TABLE %s DETACH PARTITION %s INTO %s",
		QuoteIdentDoubleQuote(table), QuoteIdentDoubleQuote(partition), QuoteIdentDoubleQuote(intoTable),
	)
}

// AddPartitionStmt builds the DDL for adding a brand-new empty range partition directly, for when
// there's no staging table to attach from.
func AddPartitionStmt(table, partition string, low, high PartitionBound) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD PARTITION %s STARTING FROM (%s) ENDING AT (%s)",
		QuoteIdentDoubleQuote(table), QuoteIdentDoubleQuote(partition), low, high,
	)
}

// DropPartitionStmt builds the DDL that permanently drops a partition and its data in place.
func DropPartitionStmt(table, partition string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP PARTITION %s", QuoteIdentDoubleQuote(table), QuoteIdentDoubleQuote(partition))
}
