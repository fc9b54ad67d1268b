package database

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// WriteCSV writes records to w as RFC-4180 CSV (via encoding/csv, which already handles
// quoting/escaping per RFC-4180), column order taken from the first record's sorted keys (see
// DESIGN.md's Record-ordering decision). Unlike StreamToCSV this writes one in-memory slice in a
// single pass, for callers that already have every record (e.g. small exports that don't
// warrant a streaming query).
func WriteCSV(w io.Writer, records []map[string]any, options CSVOptions) error {
	csvWriter := csv.NewWriter(w)

	var columns []string

	for _, record := range records {
		if columns == nil {
			columns = sortedKeys(record)

			if options.Header {
				if err := csvWriter.Write(columns); err != nil {
					return errors.Wrap(err, "can't write csv header")
				}
			}
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

		if err := csvWriter.Write(row); err != nil {
			return errors.Wrap(err, "can't write csv row")
		}
	}

	csvWriter.Flush()

	return csvWriter.Error()
}
