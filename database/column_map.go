package database

import (
	"reflect"

	"github.com/jmoiron/sqlx/reflectx"
)

// ColumnMap derives database column names from a struct's tagged fields using reflectx, the same
// field mapper sqlx itself uses for StructScan/NamedExec.
type ColumnMap struct {
	mapper *reflectx.Mapper
}

// NewColumnMap creates a ColumnMap backed by the given field mapper, typically
// reflectx.NewMapperFunc("db", someCaseConverter).
func NewColumnMap(mapper *reflectx.Mapper) ColumnMap {
	return ColumnMap{mapper: mapper}
}

// Columns returns the column names of subject's top-level tagged fields, in declaration order.
// Fields embedded from another struct contribute their own columns under their own names and are
// not listed again here; unexported fields and fields tagged "-" are skipped.
func (m ColumnMap) Columns(subject interface{}) []string {
	t := reflect.TypeOf(subject)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	tm := m.mapper.TypeMap(t)

	columns := make([]string, 0, len(tm.Index))
	for _, fi := range tm.Index {
		if len(fi.Index) != 1 {
			continue
		}

		if fi.Field.PkgPath != "" || fi.Name == "-" {
			continue
		}

		columns = append(columns, fi.Name)
	}

	return columns
}
