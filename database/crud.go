package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/relio/jrm/database/dialect"
)

// Result is the standardized envelope every CRUD dispatcher operation (Select, Insert, Update,
// DeleteWhere, Merge, Execute, Query) returns: Status is 0 on success, -1 on a caught error, in which
// case Message carries the error text. Data and Columns are populated for queries only; Count is
// the number of rows returned or affected.
type Result struct {
	Status  int
	Message string
	Data    []map[string]any
	Columns []string
	Count   int64
}

func errorResult(err error) Result {
	return Result{Status: -1, Message: err.Error()}
}

// QueryOptions is Select's options envelope: Limit (0 means "up to the configured fetch cap") and
// OrderBy, a sequence of already-formed "col DIR" fragments.
type QueryOptions struct {
	Limit   int
	OrderBy []string
}

// dialectOf resolves db's own dialect.Dialect by its database/sql driver name, falling back to
// the "generic" dialect for a driver name no registered dialect claims.
func (db *DB) dialectOf() (*dialect.Dialect, error) {
	if d, err := dialect.LookupByDriverName(db.DriverName()); err == nil {
		return d, nil
	}

	return dialect.Lookup("generic")
}

// sortedKeys returns a map's keys in ascending order. Record is represented as a plain
// map[string]any for literal ergonomics; Go maps have no observable iteration order, so column
// order in generated SQL is made deterministic by sorting rather than preserved from the caller's
// construction order (see DESIGN.md).
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Select builds and runs a SELECT against table.
func (db *DB) Select(ctx context.Context, table string, columns []string, where ConditionTree, options QueryOptions) Result {
	d, err := db.dialectOf()
	if err != nil {
		return errorResult(err)
	}

	colList := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, column := range columns {
			quoted[i] = d.QuoteIdent(column)
		}

		colList = strings.Join(quoted, ", ")
	}

	values := make([]any, 0)

	whereSQL, err := compileWhereInto(where, d, &values)
	if err != nil {
		return errorResult(err)
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", colList, d.QuoteIdent(table))
	if whereSQL != "" {
		stmt += " WHERE " + whereSQL
	}

	if len(options.OrderBy) > 0 {
		stmt += " ORDER BY " + strings.Join(options.OrderBy, ", ")
	}

	limit := options.Limit
	if limit <= 0 {
		limit = db.Options.FetchCap
	}

	stmt += fmt.Sprintf(" LIMIT %d", limit)

	return db.runQuery(ctx, stmt, values)
}

// Insert writes data to table. A single record builds one INSERT, optionally with a PostgreSQL
// RETURNING clause; multiple records are partitioned into bulkSize-sized (default
// Options.BulkInsertSize) multi-row INSERT chunks sharing the first record's column set - a
// record missing one of those columns binds NULL for it.
func (db *DB) Insert(ctx context.Context, table string, data []map[string]any, returnColumns []string, bulkSize int) Result {
	if len(data) == 0 {
		return Result{Status: 0, Message: "OK"}
	}

	d, err := db.dialectOf()
	if err != nil {
		return errorResult(err)
	}

	if len(data) == 1 {
		return db.insertOne(ctx, d, table, data[0], returnColumns)
	}

	if bulkSize <= 0 {
		bulkSize = db.Options.BulkInsertSize
	}

	var total int64

	for start := 0; start < len(data); start += bulkSize {
		end := start + bulkSize
		if end > len(data) {
			end = len(data)
		}

		result := db.insertChunk(ctx, d, table, data[start:end])
		if result.Status != 0 {
			return result
		}

		total += result.Count
	}

	return Result{Status: 0, Message: "OK", Count: total}
}

func (db *DB) insertOne(ctx context.Context, d *dialect.Dialect, table string, record map[string]any, returnColumns []string) Result {
	columns := sortedKeys(record)
	quotedColumns := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	values := make([]any, 0, len(columns))

	for i, column := range columns {
		quotedColumns[i] = d.QuoteIdent(column)

		fv, err := FormatValue(record[column], Bind)
		if err != nil {
			return errorResult(err)
		}

		if fv.Mode == Inline {
			placeholders[i] = fv.Literal
			continue
		}

		values = append(values, fv.Value)
		placeholders[i] = d.BindVar(len(values), column)
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), strings.Join(quotedColumns, ", "), strings.Join(placeholders, ", "),
	)

	if len(returnColumns) > 0 && d.Name == "postgres" {
		quotedReturn := make([]string, len(returnColumns))
		for i, column := range returnColumns {
			quotedReturn[i] = d.QuoteIdent(column)
		}

		stmt += " RETURNING " + strings.Join(quotedReturn, ", ")

		return db.runQuery(ctx, stmt, values)
	}

	res, err := db.ExecContext(ctx, stmt, values...)
	if err != nil {
		return errorResult(err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return errorResult(err)
	}

	return Result{Status: 0, Message: "OK", Count: count}
}

func (db *DB) insertChunk(ctx context.Context, d *dialect.Dialect, table string, records []map[string]any) Result {
	columns := sortedKeys(records[0])
	quotedColumns := make([]string, len(columns))
	for i, column := range columns {
		quotedColumns[i] = d.QuoteIdent(column)
	}

	values := make([]any, 0, len(columns)*len(records))
	rows := make([]string, len(records))

	for r, record := range records {
		placeholders := make([]string, len(columns))

		for i, column := range columns {
			fv, err := FormatValue(record[column], Bind)
			if err != nil {
				return errorResult(err)
			}

			if fv.Mode == Inline {
				placeholders[i] = fv.Literal
				continue
			}

			values = append(values, fv.Value)
			placeholders[i] = d.BindVar(len(values), column)
		}

		rows[r] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		d.QuoteIdent(table), strings.Join(quotedColumns, ", "), strings.Join(rows, ", "),
	)

	res, err := db.ExecContext(ctx, stmt, values...)
	if err != nil {
		return errorResult(err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return errorResult(err)
	}

	return Result{Status: 0, Message: "OK", Count: count}
}

// Update builds and runs an UPDATE against table. A nil or empty where updates every row.
func (db *DB) Update(ctx context.Context, table string, data map[string]any, where ConditionTree) Result {
	if len(data) == 0 {
		return errorResult(fmt.Errorf("%w: update requires at least one column", ErrSyntaxOrDialect))
	}

	d, err := db.dialectOf()
	if err != nil {
		return errorResult(err)
	}

	if err := db.requireDelta(d, table); err != nil {
		return errorResult(err)
	}

	columns := sortedKeys(data)
	assignments := make([]string, len(columns))
	values := make([]any, 0, len(columns))

	for i, column := range columns {
		fv, err := FormatValue(data[column], Bind)
		if err != nil {
			return errorResult(err)
		}

		if fv.Mode == Inline {
			assignments[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(column), fv.Literal)
			continue
		}

		values = append(values, fv.Value)
		assignments[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(column), d.BindVar(len(values), column))
	}

	whereSQL, err := compileWhereInto(where, d, &values)
	if err != nil {
		return errorResult(err)
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s", d.QuoteIdent(table), strings.Join(assignments, ", "))
	if whereSQL != "" {
		stmt += " WHERE " + whereSQL
	}

	res, err := db.ExecContext(ctx, stmt, values...)
	if err != nil {
		return errorResult(err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return errorResult(err)
	}

	return Result{Status: 0, Message: "OK", Count: count}
}

// DeleteWhere builds and runs a DELETE against table, named to not collide with the entity-bulk
// Delete method in db.go. A nil or empty where deletes every row.
func (db *DB) DeleteWhere(ctx context.Context, table string, where ConditionTree) Result {
	d, err := db.dialectOf()
	if err != nil {
		return errorResult(err)
	}

	if err := db.requireDelta(d, table); err != nil {
		return errorResult(err)
	}

	values := make([]any, 0)

	whereSQL, err := compileWhereInto(where, d, &values)
	if err != nil {
		return errorResult(err)
	}

	stmt := fmt.Sprintf("DELETE FROM %s", d.QuoteIdent(table))
	if whereSQL != "" {
		stmt += " WHERE " + whereSQL
	}

	res, err := db.ExecContext(ctx, stmt, values...)
	if err != nil {
		return errorResult(err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return errorResult(err)
	}

	return Result{Status: 0, Message: "OK", Count: count}
}

// Merge upserts data into table, matching existing rows on keyColumns. updateColumns defaults to
// every data column minus the key columns; when noUpdate is true, a matching row is left
// untouched (MySQL: ignored; PostgreSQL/SQLite: DO NOTHING; MergeInto dialects: WHEN MATCHED
// clause omitted) instead of updated.
func (db *DB) Merge(ctx context.Context, table string, data map[string]any, keyColumns []string, updateColumns []string, noUpdate bool) Result {
	if len(data) == 0 {
		return errorResult(fmt.Errorf("%w: merge requires at least one column", ErrSyntaxOrDialect))
	}

	if len(keyColumns) == 0 {
		return errorResult(fmt.Errorf("%w: merge requires at least one key column", ErrSyntaxOrDialect))
	}

	d, err := db.dialectOf()
	if err != nil {
		return errorResult(err)
	}

	if err := db.requireDelta(d, table); err != nil {
		return errorResult(err)
	}

	if len(updateColumns) == 0 {
		for _, column := range sortedKeys(data) {
			if !contains(keyColumns, column) {
				updateColumns = append(updateColumns, column)
			}
		}
	}

	columns := sortedKeys(data)
	placeholders := make([]string, len(columns))
	values := make([]any, 0, len(columns))

	for i, column := range columns {
		fv, ferr := FormatValue(data[column], Bind)
		if ferr != nil {
			return errorResult(ferr)
		}

		if fv.Mode == Inline {
			placeholders[i] = fv.Literal
			continue
		}

		values = append(values, fv.Value)
		placeholders[i] = d.BindVar(len(values), column)
	}

	var stmt string

	switch d.Upsert {
	case dialect.OnDuplicateKeyUpdate:
		stmt = db.mysqlMergeStmt(d, table, columns, placeholders, updateColumns, noUpdate)
	case dialect.OnConflictDoUpdate:
		stmt = db.onConflictMergeStmt(d, table, columns, placeholders, keyColumns, updateColumns, noUpdate)
	default:
		stmt = db.mergeIntoStmt(d, table, columns, placeholders, keyColumns, updateColumns, noUpdate)
	}

	res, err := db.ExecContext(ctx, stmt, values...)
	if err != nil {
		return errorResult(err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return errorResult(err)
	}

	return Result{Status: 0, Message: "OK", Count: count}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

func (db *DB) mysqlMergeStmt(d *dialect.Dialect, table string, columns []string, placeholders []string, updateColumns []string, noUpdate bool) string {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = d.QuoteIdent(column)
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	)

	if noUpdate || len(updateColumns) == 0 {
		return "INSERT IGNORE " + strings.TrimPrefix(stmt, "INSERT ")
	}

	set := make([]string, len(updateColumns))
	for i, column := range updateColumns {
		set[i] = fmt.Sprintf("%s = VALUES(%s)", d.QuoteIdent(column), d.QuoteIdent(column))
	}

	return stmt + " ON DUPLICATE KEY UPDATE " + strings.Join(set, ", ")
}

func (db *DB) onConflictMergeStmt(d *dialect.Dialect, table string, columns []string, placeholders []string, keyColumns []string, updateColumns []string, noUpdate bool) string {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = d.QuoteIdent(column)
	}

	quotedKeys := make([]string, len(keyColumns))
	for i, column := range keyColumns {
		quotedKeys[i] = d.QuoteIdent(column)
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s)",
		d.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "), strings.Join(quotedKeys, ", "),
	)

	if noUpdate || len(updateColumns) == 0 {
		return stmt + " DO NOTHING"
	}

	set := make([]string, len(updateColumns))
	for i, column := range updateColumns {
		set[i] = fmt.Sprintf("%s = EXCLUDED.%s", d.QuoteIdent(column), d.QuoteIdent(column))
	}

	return stmt + " DO UPDATE SET " + strings.Join(set, ", ")
}

func (db *DB) mergeIntoStmt(d *dialect.Dialect, table string, columns []string, placeholders []string, keyColumns []string, updateColumns []string, noUpdate bool) string {
	selectCols := make([]string, len(columns))
	for i, column := range columns {
		selectCols[i] = fmt.Sprintf("%s AS %s", placeholders[i], d.QuoteIdent(column))
	}

	onConds := make([]string, len(keyColumns))
	for i, column := range keyColumns {
		onConds[i] = fmt.Sprintf("target.%s = source.%s", d.QuoteIdent(column), d.QuoteIdent(column))
	}

	matched := ""
	if !noUpdate && len(updateColumns) > 0 {
		set := make([]string, len(updateColumns))
		for i, column := range updateColumns {
			set[i] = fmt.Sprintf("%s = source.%s", d.QuoteIdent(column), d.QuoteIdent(column))
		}

		matched = fmt.Sprintf(" WHEN MATCHED THEN UPDATE SET %s", strings.Join(set, ", "))
	}

	insertCols := make([]string, len(columns))
	insertVals := make([]string, len(columns))
	for i, column := range columns {
		insertCols[i] = d.QuoteIdent(column)
		insertVals[i] = "source." + d.QuoteIdent(column)
	}

	source := "SELECT " + strings.Join(selectCols, ", ")
	if d.MergeSourceTable != "" {
		source += " FROM " + d.MergeSourceTable
	}

	return fmt.Sprintf(
		"MERGE INTO %s AS target USING (%s) AS source ON (%s)%s WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		d.QuoteIdent(table), source, strings.Join(onConds, " AND "), matched,
		strings.Join(insertCols, ", "), strings.Join(insertVals, ", "),
	)
}

// Execute runs sqlText, a raw DML/DDL statement, with args normalized to db's native placeholder
// style, returning the driver-reported row count.
func (db *DB) Execute(ctx context.Context, sqlText string, args any) Result {
	d, err := db.dialectOf()
	if err != nil {
		return errorResult(err)
	}

	rewritten, values, err := NormalizePlaceholders(sqlText, args, d.Placeholders)
	if err != nil {
		return errorResult(err)
	}

	res, err := db.ExecContext(ctx, rewritten, values...)
	if err != nil {
		return errorResult(err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return errorResult(err)
	}

	return Result{Status: 0, Message: "OK", Count: count}
}

// Query runs sqlText, a raw SELECT, with args normalized to db's native placeholder style,
// returning every row up to Options.FetchCap as a sequence of records.
func (db *DB) Query(ctx context.Context, sqlText string, args any) Result {
	d, err := db.dialectOf()
	if err != nil {
		return errorResult(err)
	}

	rewritten, values, err := NormalizePlaceholders(sqlText, args, d.Placeholders)
	if err != nil {
		return errorResult(err)
	}

	return db.runQuery(ctx, rewritten, values)
}

func (db *DB) runQuery(ctx context.Context, stmt string, args []any) Result {
	rows, err := db.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return errorResult(err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return errorResult(err)
	}

	data := make([]map[string]any, 0)

	for rows.Next() {
		record := make(map[string]any, len(columns))
		if err := rows.MapScan(record); err != nil {
			return errorResult(err)
		}

		if len(data) >= db.Options.FetchCap {
			break
		}

		data = append(data, record)
	}

	if err := rows.Err(); err != nil {
		return errorResult(err)
	}

	return Result{Status: 0, Message: "OK", Data: data, Columns: columns, Count: int64(len(data))}
}
