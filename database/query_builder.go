package database

import (
	"errors"
	"fmt"
	"github.com/relio/jrm/database/dialect"
	"github.com/relio/jrm/strcase"
	"github.com/jmoiron/sqlx/reflectx"
	"slices"
	"sort"
	"strings"
)

var (
	ErrInvalidColumnName = errors.New("invalid column name")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

type QueryBuilder interface {
	UpsertStatement(stmt UpsertStatement) (string, int, error)

	InsertStatement(stmt InsertStatement) string

	InsertIgnoreStatement(stmt InsertStatement) (string, error)

	InsertSelectStatement(stmt InsertSelectStatement) string

	SelectStatement(stmt SelectStatement) string

	UpdateStatement(stmt UpdateStatement) (string, error)

	UpdateAllStatement(stmt UpdateStatement) (string, error)

	DeleteStatement(stmt DeleteStatement) (string, error)

	DeleteAllStatement(stmt DeleteStatement) (string, error)

	BuildColumns(entity Entity, columns []string, excludedColumns []string) []string
}

func NewQueryBuilder(driver string) QueryBuilder {
	return &queryBuilder{
		dbDriver:  driver,
		columnMap: NewColumnMap(reflectx.NewMapperFunc("db", strcase.Snake)),
		dialect:   dialectFor(driver),
	}
}

func NewTestQueryBuilder(driver string) QueryBuilder {
	return &queryBuilder{
		dbDriver:  driver,
		columnMap: NewColumnMap(reflectx.NewMapperFunc("db", strcase.Snake)),
		dialect:   dialectFor(driver),
		sort:      true,
	}
}

// dialectFor resolves driver (a database/sql driver name, i.e. one of the constants above) to its
// dialect.Dialect, falling back to the generic dialect for any driver nothing in the dialect
// package is registered under - this covers Config.Type == "generic" paired with an arbitrary
// Config.Driver naming a third-party "database/sql" driver jrm has no dedicated dialect for.
func dialectFor(driver string) *dialect.Dialect {
	if d, err := dialect.LookupByDriverName(driver); err == nil {
		return d
	}

	d, _ := dialect.Lookup("generic")
	return d
}

type queryBuilder struct {
	dbDriver  string
	columnMap ColumnMap
	dialect   *dialect.Dialect

	// Indicates whether the generated columns should be sorted in ascending order before generating the
	// actual statements. This is intended for unit tests only and shouldn't be necessary for production code.
	sort bool
}

func (qb *queryBuilder) UpsertStatement(stmt UpsertStatement) (string, int, error) {
	columns := qb.BuildColumns(stmt.Entity(), stmt.Columns(), stmt.ExcludedColumns())
	into := stmt.Table()
	if into == "" {
		into = TableName(stmt.Entity())
	}
	var setFormat, clause string
	switch qb.dbDriver {
	case MySQL:
		clause = "ON DUPLICATE KEY UPDATE"
		setFormat = `"%[1]s" = VALUES("%[1]s")`
	case PostgreSQL:
		clause = fmt.Sprintf(
			"ON CONFLICT ON CONSTRAINT %s DO UPDATE SET",
			qb.getPgsqlOnConflictConstraint(stmt.Entity()),
		)
		setFormat = `"%[1]s" = EXCLUDED."%[1]s"`
	case SQLite, Spark:
		clause = fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET", qb.sqliteConflictTarget(stmt.Entity()))
		setFormat = `"%[1]s" = EXCLUDED."%[1]s"`
	default:
		if qb.dialect == nil || qb.dialect.Upsert != dialect.MergeInto {
			return "", 0, fmt.Errorf("%w: %s", ErrUnsupportedDriver, qb.dbDriver)
		}

		return qb.mergeUpsertStatement(stmt.Entity(), into, columns)
	}

	set := make([]string, 0, len(columns))
	for _, column := range columns {
		set = append(set, fmt.Sprintf(setFormat, column))
	}

	return fmt.Sprintf(
		`INSERT INTO "%s" ("%s") VALUES (%s) %s %s`,
		into,
		strings.Join(columns, `", "`),
		fmt.Sprintf(":%s", strings.Join(columns, ", :")),
		clause,
		strings.Join(set, ", "),
	), len(columns), nil
}

// mergeKeyColumns returns the columns a MERGE INTO upsert should match an existing row on,
// defaulting to "id" unless entity implements MergeKeyColumner.
func mergeKeyColumns(entity Entity) []string {
	if keyer, ok := entity.(MergeKeyColumner); ok {
		return keyer.MergeKeyColumns()
	}

	return []string{"id"}
}

// sqliteConflictTarget returns the comma-separated, quoted column list SQLite's
// "ON CONFLICT (...) DO UPDATE" needs to name explicitly, since SQLite - unlike PostgreSQL -
// doesn't infer the constraint from a name.
func (qb *queryBuilder) sqliteConflictTarget(entity Entity) string {
	keys := mergeKeyColumns(entity)
	quoted := make([]string, 0, len(keys))
	for _, key := range keys {
		quoted = append(quoted, fmt.Sprintf(`"%s"`, key))
	}

	return strings.Join(quoted, ", ")
}

// mergeUpsertStatement builds an ANSI MERGE INTO upsert for backends whose dialect.Upsert is
// dialect.MergeInto (Oracle, Db2, SQL Server, and any generic fallback driver).
func (qb *queryBuilder) mergeUpsertStatement(entity Entity, into string, columns []string) (string, int, error) {
	quote := qb.dialect.QuoteIdent
	mergeKeys := mergeKeyColumns(entity)

	selectCols := make([]string, 0, len(columns))
	for _, column := range columns {
		selectCols = append(selectCols, fmt.Sprintf(":%s AS %s", column, quote(column)))
	}

	onConds := make([]string, 0, len(mergeKeys))
	for _, key := range mergeKeys {
		onConds = append(onConds, fmt.Sprintf("target.%s = source.%s", quote(key), quote(key)))
	}

	updateCols := make([]string, 0, len(columns))
	for _, column := range columns {
		if slices.Contains(mergeKeys, column) {
			continue
		}

		updateCols = append(updateCols, fmt.Sprintf("%s = source.%s", quote(column), quote(column)))
	}

	insertCols := make([]string, 0, len(columns))
	insertVals := make([]string, 0, len(columns))
	for _, column := range columns {
		insertCols = append(insertCols, quote(column))
		insertVals = append(insertVals, "source."+quote(column))
	}

	matched := ""
	if len(updateCols) > 0 {
		matched = fmt.Sprintf(" WHEN MATCHED THEN UPDATE SET %s", strings.Join(updateCols, ", "))
	}

	source := "SELECT " + strings.Join(selectCols, ", ")
	if qb.dialect != nil && qb.dialect.MergeSourceTable != "" {
		source += " FROM " + qb.dialect.MergeSourceTable
	}

	stmt := fmt.Sprintf(
		`MERGE INTO %s AS target USING (%s) AS source ON (%s)%s WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)`,
		quote(into),
		source,
		strings.Join(onConds, " AND "),
		matched,
		strings.Join(insertCols, ", "),
		strings.Join(insertVals, ", "),
	)

	return stmt, len(columns), nil
}

func (qb *queryBuilder) InsertStatement(stmt InsertStatement) string {
	columns := qb.BuildColumns(stmt.Entity(), stmt.Columns(), stmt.ExcludedColumns())
	into := stmt.Table()
	if into == "" {
		into = TableName(stmt.Entity())
	}

	return fmt.Sprintf(
		`INSERT INTO "%s" ("%s") VALUES (%s)`,
		into,
		strings.Join(columns, `", "`),
		fmt.Sprintf(":%s", strings.Join(columns, ", :")),
	)
}

func (qb *queryBuilder) InsertIgnoreStatement(stmt InsertStatement) (string, error) {
	columns := qb.BuildColumns(stmt.Entity(), stmt.Columns(), stmt.ExcludedColumns())
	into := stmt.Table()
	if into == "" {
		into = TableName(stmt.Entity())
	}

	switch qb.dbDriver {
	case MySQL:
		return fmt.Sprintf(
			`INSERT IGNORE INTO "%s" ("%s") VALUES (%s)`,
			into,
			strings.Join(columns, `", "`),
			fmt.Sprintf(":%s", strings.Join(columns, ", :")),
		), nil
	case PostgreSQL:
		return fmt.Sprintf(
			`INSERT INTO "%s" ("%s") VALUES (%s) ON CONFLICT ON CONSTRAINT %s DO NOTHING`,
			into,
			strings.Join(columns, `", "`),
			fmt.Sprintf(":%s", strings.Join(columns, ", :")),
			qb.getPgsqlOnConflictConstraint(stmt.Entity()),
		), nil
	case SQLite, Spark:
		return fmt.Sprintf(
			`INSERT OR IGNORE INTO "%s" ("%s") VALUES (%s)`,
			into,
			strings.Join(columns, `", "`),
			fmt.Sprintf(":%s", strings.Join(columns, ", :")),
		), nil
	default:
		if qb.dialect == nil || qb.dialect.Upsert != dialect.MergeInto {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, qb.dbDriver)
		}

		return qb.mergeInsertIgnoreStatement(stmt.Entity(), into, columns), nil
	}
}

// mergeInsertIgnoreStatement builds a MERGE INTO with only a WHEN NOT MATCHED clause, the
// MergeInto-dialect equivalent of MySQL's INSERT IGNORE / PostgreSQL's ON CONFLICT DO NOTHING.
func (qb *queryBuilder) mergeInsertIgnoreStatement(entity Entity, into string, columns []string) string {
	quote := qb.dialect.QuoteIdent
	mergeKeys := mergeKeyColumns(entity)

	selectCols := make([]string, 0, len(columns))
	for _, column := range columns {
		selectCols = append(selectCols, fmt.Sprintf(":%s AS %s", column, quote(column)))
	}

	onConds := make([]string, 0, len(mergeKeys))
	for _, key := range mergeKeys {
		onConds = append(onConds, fmt.Sprintf("target.%s = source.%s", quote(key), quote(key)))
	}

	insertCols := make([]string, 0, len(columns))
	insertVals := make([]string, 0, len(columns))
	for _, column := range columns {
		insertCols = append(insertCols, quote(column))
		insertVals = append(insertVals, "source."+quote(column))
	}

	source := "SELECT " + strings.Join(selectCols, ", ")
	if qb.dialect != nil && qb.dialect.MergeSourceTable != "" {
		source += " FROM " + qb.dialect.MergeSourceTable
	}

	return fmt.Sprintf(
		`MERGE INTO %s AS target USING (%s) AS source ON (%s) WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)`,
		quote(into),
		source,
		strings.Join(onConds, " AND "),
		strings.Join(insertCols, ", "),
		strings.Join(insertVals, ", "),
	)
}

func (qb *queryBuilder) InsertSelectStatement(stmt InsertSelectStatement) string {
	selectStmt := qb.SelectStatement(stmt.Select())
	columns := qb.BuildColumns(stmt.Entity(), stmt.Columns(), stmt.ExcludedColumns())
	into := stmt.Table()
	if into == "" {
		into = TableName(stmt.Entity())
	}

	return fmt.Sprintf(
		`INSERT INTO "%s" ("%s") %s`,
		into,
		strings.Join(columns, `", "`),
		selectStmt,
	)
}

func (qb *queryBuilder) SelectStatement(stmt SelectStatement) string {
	columns := qb.BuildColumns(stmt.Entity(), stmt.Columns(), stmt.ExcludedColumns())
	from := stmt.Table()
	if from == "" {
		from = TableName(stmt.Entity())
	}
	where := stmt.Where()
	if where != "" {
		where = fmt.Sprintf(" WHERE %s", where)
	}

	return fmt.Sprintf(
		`SELECT "%s" FROM "%s"%s`,
		strings.Join(columns, `", "`),
		from,
		where,
	)
}

// updateSetClause builds the "col" = :col, ... fragment of an UPDATE statement from stmt's column
// list, applying the same SetColumns/SetExcludedColumns override rules InsertStatement uses.
func (qb *queryBuilder) updateSetClause(stmt UpdateStatement) (string, error) {
	columns := qb.BuildColumns(stmt.Entity(), stmt.Columns(), stmt.ExcludedColumns())
	if len(columns) == 0 {
		return "", errors.New("set cannot be empty")
	}

	set := make([]string, len(columns))
	for i, column := range columns {
		set[i] = fmt.Sprintf(`"%s" = :%s`, column, column)
	}

	return strings.Join(set, ", "), nil
}

func (qb *queryBuilder) UpdateStatement(stmt UpdateStatement) (string, error) {
	table := stmt.Table()
	if table == "" {
		table = TableName(stmt.Entity())
	}
	set, err := qb.updateSetClause(stmt)
	if err != nil {
		return "", err
	}
	where := stmt.Where()
	if where == "" {
		return "", errors.New("cannot use UpdateStatement() without where statement - use UpdateAllStatement() instead")
	}

	return fmt.Sprintf(
		`UPDATE "%s" SET %s WHERE %s`,
		table,
		set,
		where,
	), nil
}

func (qb *queryBuilder) UpdateAllStatement(stmt UpdateStatement) (string, error) {
	table := stmt.Table()
	if table == "" {
		table = TableName(stmt.Entity())
	}
	set, err := qb.updateSetClause(stmt)
	if err != nil {
		return "", err
	}
	where := stmt.Where()
	if where != "" {
		return "", errors.New("cannot use UpdateAllStatement() with where statement - use UpdateStatement() instead")
	}

	return fmt.Sprintf(
		`UPDATE "%s" SET %s`,
		table,
		set,
	), nil
}

func (qb *queryBuilder) DeleteStatement(stmt DeleteStatement) (string, error) {
	from := stmt.Table()
	if from == "" {
		from = TableName(stmt.Entity())
	}
	where := stmt.Where()
	if where != "" {
		where = fmt.Sprintf(" WHERE %s", where)
	} else {
		return "", errors.New("cannot use DeleteStatement() without where statement - use DeleteAllStatement() instead")
	}

	return fmt.Sprintf(
		`DELETE FROM "%s"%s`,
		from,
		where,
	), nil
}

func (qb *queryBuilder) DeleteAllStatement(stmt DeleteStatement) (string, error) {
	from := stmt.Table()
	if from == "" {
		from = TableName(stmt.Entity())
	}
	where := stmt.Where()
	if where != "" {
		return "", errors.New("cannot use DeleteAllStatement() with where statement - use DeleteStatement() instead")
	}

	return fmt.Sprintf(
		`DELETE FROM "%s"`,
		from,
	), nil
}

func (qb *queryBuilder) BuildColumns(entity Entity, columns []string, excludedColumns []string) []string {
	var entityColumns []string

	if len(columns) > 0 {
		entityColumns = columns
	} else {
		tempColumns := qb.columnMap.Columns(entity)
		entityColumns = make([]string, len(tempColumns))
		copy(entityColumns, tempColumns)
	}

	if len(excludedColumns) > 0 {
		entityColumns = slices.DeleteFunc(
			entityColumns,
			func(column string) bool {
				return slices.Contains(excludedColumns, column)
			},
		)
	}

	if qb.sort {
		// The order in which the columns appear is not guaranteed as we extract the columns dynamically
		// from the struct. So, we've to sort them here to be able to test the generated statements.
		sort.Strings(entityColumns)
	}

	return entityColumns[:len(entityColumns):len(entityColumns)]
}

// getPgsqlOnConflictConstraint returns the constraint name of the given entity, the statement's subject.
// If the subject does not implement the PgsqlOnConflictConstrainter interface, it will simply return
// the table name prefixed with `pk_`.
func (qb *queryBuilder) getPgsqlOnConflictConstraint(entity Entity) string {
	if constrainter, ok := entity.(PgsqlOnConflictConstrainter); ok {
		return constrainter.PgsqlOnConflictConstraint()
	}

	return "pk_" + TableName(entity)
}
