package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/relio/jrm/database/dialect"
)

// RowStatus reports how one row of a StreamQuery came out.
type RowStatus int

const (
	RowOK RowStatus = iota
	RowError
	RowAborted
)

// StreamRow is one element of a StreamQuery sequence.
type StreamRow struct {
	Index  int
	Record map[string]any
	Status RowStatus
	Err    error
}

// StreamQuery runs sqlText lazily, yielding one StreamRow per result row on the returned channel.
// Row-level decode errors increment an error counter rather than aborting the stream; once that
// counter reaches maxErrors (0 disables the budget entirely; a negative maxErrors aborts on the
// very first error), a final RowAborted row is sent and the channel is closed. database/sql's Rows
// cursor already pulls rows from the driver incrementally, which is this implementation's
// equivalent of a server-side cursor/fetchmany loop — a true named-cursor optimization per backend
// is not implemented (see DESIGN.md).
func (db *DB) StreamQuery(ctx context.Context, sqlText string, args any, maxErrors int) (<-chan StreamRow, error) {
	d, err := db.dialectOf()
	if err != nil {
		return nil, err
	}

	rewritten, values, err := NormalizePlaceholders(sqlText, args, d.Placeholders)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryxContext(ctx, rewritten, values...)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamRow, 1)

	go func() {
		defer close(out)
		defer func() { _ = rows.Close() }()

		index := 0
		errCount := 0

		for rows.Next() {
			record := make(map[string]any)

			if scanErr := rows.MapScan(record); scanErr != nil {
				errCount++
				row := StreamRow{Index: index, Status: RowError, Err: scanErr}
				index++

				if maxErrors < 0 || (maxErrors > 0 && errCount >= maxErrors) {
					row.Status = RowAborted

					select {
					case out <- row:
					case <-ctx.Done():
					}

					return
				}

				select {
				case out <- row:
				case <-ctx.Done():
					return
				}

				continue
			}

			row := StreamRow{Index: index, Record: record, Status: RowOK}
			index++

			select {
			case out <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// BatchStatus reports how one StreamQueryBatch batch came out.
type BatchStatus int

const (
	BatchOK BatchStatus = iota
	BatchAborted
)

// StreamBatch is one element of a StreamQueryBatch sequence.
type StreamBatch struct {
	CumulativeCount int
	Records         []map[string]any
	Status          BatchStatus
}

// StreamQueryBatch groups StreamQuery's rows into batches of batchSize (default 1000), yielding a
// running CumulativeCount with each batch.
func (db *DB) StreamQueryBatch(ctx context.Context, sqlText string, args any, batchSize int, maxErrors int) (<-chan StreamBatch, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	rows, err := db.StreamQuery(ctx, sqlText, args, maxErrors)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamBatch, 1)

	go func() {
		defer close(out)

		batch := make([]map[string]any, 0, batchSize)
		cumulative := 0

		flush := func(status BatchStatus) bool {
			if len(batch) == 0 && status == BatchOK {
				return true
			}

			cumulative += len(batch)

			select {
			case out <- StreamBatch{CumulativeCount: cumulative, Records: batch, Status: status}:
			case <-ctx.Done():
				return false
			}

			batch = make([]map[string]any, 0, batchSize)

			return true
		}

		for row := range rows {
			switch row.Status {
			case RowAborted:
				flush(BatchAborted)
				return
			case RowError:
				continue
			}

			batch = append(batch, row.Record)

			if len(batch) >= batchSize {
				if !flush(BatchOK) {
					return
				}
			}
		}

		flush(BatchOK)
	}()

	return out, nil
}

// streamMutate consumes records, turns each into a statement via build, and executes them inside
// a transaction that commits every commitEvery rows (default 10000). Once the error budget named
// by maxErrors (0 = unlimited tolerance, negative = abort on first error) is exceeded, the current
// uncommitted window is rolled back and ErrStreamAborted is returned.
func (db *DB) streamMutate(
	ctx context.Context, records <-chan map[string]any, commitEvery int, maxErrors int,
	build func(d *dialect.Dialect, record map[string]any) (string, []any, error),
) error {
	if commitEvery <= 0 {
		commitEvery = 10000
	}

	d, err := db.dialectOf()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, "")
	if err != nil {
		return err
	}

	inWindow := 0
	errCount := 0

	for {
		select {
		case record, ok := <-records:
			if !ok {
				if inWindow > 0 {
					return tx.Commit()
				}

				return tx.Rollback()
			}

			stmt, args, berr := build(d, record)
			if berr == nil {
				_, berr = tx.ExecContext(ctx, stmt, args...)
			}

			if berr != nil {
				errCount++

				if maxErrors < 0 || (maxErrors > 0 && errCount >= maxErrors) {
					_ = tx.Rollback()
					return errors.Wrap(ErrStreamAborted, berr.Error())
				}

				continue
			}

			inWindow++

			if inWindow >= commitEvery {
				if cerr := tx.Commit(); cerr != nil {
					return cerr
				}

				inWindow = 0

				tx, err = db.BeginTx(ctx, "")
				if err != nil {
					return err
				}
			}
		case <-ctx.Done():
			_ = tx.Rollback()
			return ctx.Err()
		}
	}
}

// StreamInsert consumes records, inserting each as a single-row INSERT into table. See
// streamMutate for the commitEvery/maxErrors contract.
func (db *DB) StreamInsert(ctx context.Context, table string, records <-chan map[string]any, commitEvery int, maxErrors int) error {
	return db.streamMutate(ctx, records, commitEvery, maxErrors, func(d *dialect.Dialect, record map[string]any) (string, []any, error) {
		columns := sortedKeys(record)
		quoted := make([]string, len(columns))
		placeholders := make([]string, len(columns))
		values := make([]any, 0, len(columns))

		for i, column := range columns {
			quoted[i] = d.QuoteIdent(column)

			fv, err := FormatValue(record[column], Bind)
			if err != nil {
				return "", nil, err
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
			d.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
		)

		return stmt, values, nil
	})
}

// StreamUpdate consumes records, issuing a single-row UPDATE against table for each, keyed on the
// record's "id" column (every other column is bound into the SET clause). A record missing "id"
// is counted as an error against maxErrors.
func (db *DB) StreamUpdate(ctx context.Context, table string, records <-chan map[string]any, commitEvery int, maxErrors int) error {
	return db.streamMutate(ctx, records, commitEvery, maxErrors, func(d *dialect.Dialect, record map[string]any) (string, []any, error) {
		idValue, ok := record["id"]
		if !ok {
			return "", nil, errors.Errorf(`stream update record missing "id" column`)
		}

		columns := sortedKeys(record)
		assignments := make([]string, 0, len(columns))
		values := make([]any, 0, len(columns))

		for _, column := range columns {
			if column == "id" {
				continue
			}

			fv, err := FormatValue(record[column], Bind)
			if err != nil {
				return "", nil, err
			}

			if fv.Mode == Inline {
				assignments = append(assignments, fmt.Sprintf("%s = %s", d.QuoteIdent(column), fv.Literal))
				continue
			}

			values = append(values, fv.Value)
			assignments = append(assignments, fmt.Sprintf("%s = %s", d.QuoteIdent(column), d.BindVar(len(values), column)))
		}

		idFv, err := FormatValue(idValue, Bind)
		if err != nil {
			return "", nil, err
		}

		var where string

		if idFv.Mode == Inline {
			where = fmt.Sprintf("%s = %s", d.QuoteIdent("id"), idFv.Literal)
		} else {
			values = append(values, idFv.Value)
			where = fmt.Sprintf("%s = %s", d.QuoteIdent("id"), d.BindVar(len(values), "id"))
		}

		stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s", d.QuoteIdent(table), strings.Join(assignments, ", "), where)

		return stmt, values, nil
	})
}

// StreamMerge consumes records, upserting each as a single-row merge against table, matching on
// keyColumns the same way Db.Merge's dialect dispatch does.
func (db *DB) StreamMerge(
	ctx context.Context, table string, records <-chan map[string]any,
	keyColumns []string, updateColumns []string, noUpdate bool, commitEvery int, maxErrors int,
) error {
	return db.streamMutate(ctx, records, commitEvery, maxErrors, func(d *dialect.Dialect, record map[string]any) (string, []any, error) {
		columns := sortedKeys(record)
		placeholders := make([]string, len(columns))
		values := make([]any, 0, len(columns))

		for i, column := range columns {
			fv, err := FormatValue(record[column], Bind)
			if err != nil {
				return "", nil, err
			}

			if fv.Mode == Inline {
				placeholders[i] = fv.Literal
				continue
			}

			values = append(values, fv.Value)
			placeholders[i] = d.BindVar(len(values), column)
		}

		uc := updateColumns
		if len(uc) == 0 {
			for _, column := range columns {
				if !contains(keyColumns, column) {
					uc = append(uc, column)
				}
			}
		}

		var stmt string

		switch d.Upsert {
		case dialect.OnDuplicateKeyUpdate:
			stmt = db.mysqlMergeStmt(d, table, columns, placeholders, uc, noUpdate)
		case dialect.OnConflictDoUpdate:
			stmt = db.onConflictMergeStmt(d, table, columns, placeholders, keyColumns, uc, noUpdate)
		default:
			stmt = db.mergeIntoStmt(d, table, columns, placeholders, keyColumns, uc, noUpdate)
		}

		return stmt, values, nil
	})
}

// CSVOptions configures StreamToCSV. QuoteChar is accepted for parity with spec but encoding/csv's
// Writer always quotes with double quotes; a non-default QuoteChar is not honored.
type CSVOptions struct {
	Header       bool
	NullValue    string
	QuoteChar    rune
	BatchSize    int
	AbortOnError bool
}

// StreamToCSV runs sqlText and writes its result set to filePath as RFC-4180 CSV, flushing after
// every batch. The header row, when requested, is derived from the first row's columns in sorted
// order (see DESIGN.md's Record-ordering decision).
func (db *DB) StreamToCSV(ctx context.Context, sqlText string, filePath string, args any, options CSVOptions) error {
	if options.BatchSize <= 0 {
		options.BatchSize = 1000
	}

	maxErrors := 0
	if options.AbortOnError {
		maxErrors = -1
	}

	batches, err := db.StreamQueryBatch(ctx, sqlText, args, options.BatchSize, maxErrors)
	if err != nil {
		return err
	}

	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "can't create csv file")
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)

	var columns []string
	wroteHeader := false

	for batch := range batches {
		if batch.Status == BatchAborted {
			w.Flush()
			return errors.Wrap(ErrStreamAborted, "csv export aborted")
		}

		for _, record := range batch.Records {
			if columns == nil {
				columns = sortedKeys(record)
			}

			if options.Header && !wroteHeader {
				if err := w.Write(columns); err != nil {
					return errors.Wrap(err, "can't write csv header")
				}

				wroteHeader = true
			}

			row := make([]string, len(columns))

			for i, column := range columns {
				value := record[column]
				if value == nil {
					row[i] = options.NullValue
					continue
				}

				row[i] = fmt.Sprintf("%v", value)
			}

			if err := w.Write(row); err != nil {
				return errors.Wrap(err, "can't write csv row")
			}
		}

		w.Flush()

		if err := w.Error(); err != nil {
			return errors.Wrap(err, "can't flush csv writer")
		}
	}

	return nil
}
