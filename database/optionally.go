package database

import "fmt"

// Queryable is a lazily-built DML statement against a single subject entity, produced by
// NewInsert, NewUpsert, NewUpdate or NewDelete and consumed through buildStmt.
type Queryable interface {
	buildStmt() (string, int)
}

type queryableKind int

const (
	queryableInsert queryableKind = iota
	queryableUpsert
	queryableUpdate
	queryableDelete
)

// QueryableOption configures a Queryable built by NewInsert, NewUpsert, NewUpdate or NewDelete.
type QueryableOption func(q *queryable)

// WithStatement bypasses statement generation entirely and uses stmt verbatim, reporting
// placeholders as its named-parameter count.
func WithStatement(stmt string, placeholders int) QueryableOption {
	return func(q *queryable) {
		q.hasRawStmt = true
		q.rawStmt = stmt
		q.rawPlaceholders = placeholders
	}
}

// WithColumns restricts the generated statement to columns instead of every tagged field of the
// subject.
func WithColumns(columns ...string) QueryableOption {
	return func(q *queryable) {
		q.columns = columns
	}
}

// WithoutColumns excludes columns from the generated statement's default column set.
func WithoutColumns(columns ...string) QueryableOption {
	return func(q *queryable) {
		q.excludedColumns = columns
	}
}

// WithByColumn uses column instead of the default "id" for an UPDATE's or DELETE's WHERE clause.
func WithByColumn(column string) QueryableOption {
	return func(q *queryable) {
		q.byColumn = column
	}
}

// WithIgnoreOnError makes a generated INSERT silently skip rows that violate a uniqueness
// constraint instead of failing.
func WithIgnoreOnError() QueryableOption {
	return func(q *queryable) {
		q.ignoreOnError = true
	}
}

type queryable struct {
	db      *DB
	subject Entity
	kind    queryableKind

	columns         []string
	excludedColumns []string
	byColumn        string
	ignoreOnError   bool

	hasRawStmt      bool
	rawStmt         string
	rawPlaceholders int
}

func newQueryable(db *DB, subject Entity, kind queryableKind, options []QueryableOption) *queryable {
	q := &queryable{db: db, subject: subject, kind: kind}

	for _, option := range options {
		option(q)
	}

	return q
}

// NewInsert builds an INSERT statement against subject.
func NewInsert(db *DB, subject Entity, options ...QueryableOption) Queryable {
	return newQueryable(db, subject, queryableInsert, options)
}

// NewUpsert builds an upsert statement against subject.
func NewUpsert(db *DB, subject Entity, options ...QueryableOption) Queryable {
	return newQueryable(db, subject, queryableUpsert, options)
}

// NewUpdate builds an UPDATE statement against subject.
func NewUpdate(db *DB, subject Entity, options ...QueryableOption) Queryable {
	return newQueryable(db, subject, queryableUpdate, options)
}

// NewDelete builds a DELETE statement against subject.
func NewDelete(db *DB, subject Entity, options ...QueryableOption) Queryable {
	return newQueryable(db, subject, queryableDelete, options)
}

func (q *queryable) buildStmt() (string, int) {
	if q.hasRawStmt {
		return q.rawStmt, q.rawPlaceholders
	}

	qb := q.db.QueryBuilder()

	switch q.kind {
	case queryableInsert:
		placeholders := len(qb.BuildColumns(q.subject, q.columns, q.excludedColumns))
		stmt := NewInsertStatement(q.subject).SetColumns(q.columns...).SetExcludedColumns(q.excludedColumns...)

		if q.ignoreOnError {
			s, err := qb.InsertIgnoreStatement(stmt)
			if err != nil {
				panic(err)
			}

			return s, placeholders
		}

		return qb.InsertStatement(stmt), placeholders
	case queryableUpsert:
		stmt := NewUpsertStatement(q.subject).SetColumns(q.columns...).SetExcludedColumns(q.excludedColumns...)

		s, placeholders, err := qb.UpsertStatement(stmt)
		if err != nil {
			panic(err)
		}

		return s, placeholders
	case queryableUpdate:
		byColumn := q.byColumn
		if byColumn == "" {
			byColumn = "id"
		}

		stmt := NewUpdateStatement(q.subject).
			SetColumns(q.columns...).
			SetExcludedColumns(q.excludedColumns...).
			SetWhere(fmt.Sprintf(`"%s" = :%s`, byColumn, byColumn))

		s, err := qb.UpdateStatement(stmt)
		if err != nil {
			panic(err)
		}

		return s, 0
	case queryableDelete:
		byColumn := q.byColumn
		if byColumn == "" {
			byColumn = "id"
		}

		return fmt.Sprintf(`DELETE FROM "%s" WHERE "%s" IN (?)`, TableName(q.subject), byColumn), 0
	default:
		panic(fmt.Sprintf("unknown queryable kind %d", q.kind))
	}
}
