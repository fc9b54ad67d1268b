package database

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/relio/jrm/database/dialect"
)

// SplitSQLScript splits script into individual statements for execution one at a time, the way
// RunSQLScript and schema-import tooling needs. It generalizes the teacher's MysqlSplitStatements
// beyond MySQL: every dialect splits on a statement terminator at the end of a line, but only the
// "mysql" dialect also recognizes the MySQL command-line client's DELIMITER directive, since no
// other backend's import tooling understands it.
//
// The same limitations MysqlSplitStatements documented still apply: a terminator inside a quoted
// string or a comment is not protected against unless it's also not at the end of a line, and an
// alternate delimiter can only be introduced via a bare DELIMITER line, never a quoted string.
func SplitSQLScript(script string, d *dialect.Dialect) []string {
	if d != nil && d.Name == "mysql" {
		return MysqlSplitStatements(script)
	}

	terminatorRe := makeDelimiterRe(";")

	var result []string

	for len(script) > 0 {
		split := terminatorRe.Split(script, 2)

		if statement := strings.TrimSpace(split[0]); len(statement) > 0 {
			result = append(result, statement)
		}

		if len(split) > 1 {
			script = split[1]
		} else {
			script = ""
		}
	}

	return result
}

// RunSQLScript splits script per SplitSQLScript using db's dialect and executes each statement in
// turn via db.ExecContext, stopping at the first failing statement.
func RunSQLScript(ctx context.Context, db *DB, script string) error {
	d, err := db.dialectOf()
	if err != nil {
		return err
	}

	for i, statement := range SplitSQLScript(script, d) {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return errors.Wrapf(err, "can't run statement #%d of script", i+1)
		}
	}

	return nil
}
