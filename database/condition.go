package database

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/relio/jrm/database/dialect"
)

// ConditionTree is a mapping from column name to one of three node shapes: a scalar (simple
// equality), a mapping from operator token to value (regular, AND-conjoined across operators on
// the same column), or a {operator, value, placeholder} mapping giving explicit bind-vs-inline
// control (comprehensive).
type ConditionTree map[string]any

// CompileWhere compiles tree into a WHERE-clause fragment, without the leading "WHERE", and its
// bound-value vector in the fragment's left-to-right order. An empty or nil tree compiles to an
// empty fragment and an empty, non-nil value vector.
func CompileWhere(tree ConditionTree, d *dialect.Dialect) (string, []any, error) {
	values := make([]any, 0, len(tree))

	fragment, err := compileWhereInto(tree, d, &values)
	if err != nil {
		return "", nil, err
	}

	return fragment, values, nil
}

// compileWhereInto compiles tree the same way CompileWhere does, but appends bound values to the
// caller's own accumulator instead of a fresh one. Callers that also bind values of their own in
// the same statement (e.g. an UPDATE's SET clause before its WHERE) pass their accumulator here so
// positional placeholder numbering (Dollar, AtSign) stays continuous across the whole statement.
func compileWhereInto(tree ConditionTree, d *dialect.Dialect, values *[]any) (string, error) {
	if len(tree) == 0 {
		return "", nil
	}

	columns := make([]string, 0, len(tree))
	for column := range tree {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	conjuncts := make([]string, 0, len(tree))

	for _, column := range columns {
		nodeConjuncts, err := compileNode(column, tree[column], d, values)
		if err != nil {
			return "", err
		}

		conjuncts = append(conjuncts, nodeConjuncts...)
	}

	return strings.Join(conjuncts, " AND "), nil
}

// compileNode compiles one column's node into its (possibly several, AND-conjoined) conjuncts.
func compileNode(column string, node any, d *dialect.Dialect, values *[]any) ([]string, error) {
	m, ok := node.(map[string]any)
	if !ok {
		conjunct, err := emit(column, "=", node, true, d, values)
		if err != nil {
			return nil, err
		}

		return []string{conjunct}, nil
	}

	if op, value, placeholder, ok := asComprehensive(m); ok {
		conjunct, err := emit(column, op, value, placeholder, d, values)
		if err != nil {
			return nil, err
		}

		return []string{conjunct}, nil
	}

	ops := make([]string, 0, len(m))
	for op := range m {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	conjuncts := make([]string, 0, len(ops))

	for _, op := range ops {
		value := m[op]

		switch strings.ToUpper(op) {
		case "IN", "NOT IN":
			conjunct, err := compileInOperator(column, op, value, d, values)
			if err != nil {
				return nil, err
			}

			conjuncts = append(conjuncts, conjunct)
		default:
			conjunct, err := emit(column, op, value, true, d, values)
			if err != nil {
				return nil, err
			}

			conjuncts = append(conjuncts, conjunct)
		}
	}

	return conjuncts, nil
}

// asComprehensive reports whether m is a complete {operator, value[, placeholder]} mapping. A
// mapping whose single key happens to equal "operator", "value" or "placeholder" but does not
// carry both "operator" and "value" falls through and is treated as a regular operator mapping
// instead, per spec.
func asComprehensive(m map[string]any) (operator string, value any, placeholder bool, ok bool) {
	opRaw, hasOp := m["operator"]
	val, hasVal := m["value"]

	if !hasOp || !hasVal {
		return "", nil, false, false
	}

	for key := range m {
		if key != "operator" && key != "value" && key != "placeholder" {
			return "", nil, false, false
		}
	}

	op, isString := opRaw.(string)
	if !isString {
		return "", nil, false, false
	}

	placeholder = true
	if p, has := m["placeholder"]; has {
		switch pv := p.(type) {
		case string:
			placeholder = strings.EqualFold(pv, "Y")
		case bool:
			placeholder = pv
		}
	}

	return op, val, placeholder, true
}

// emit renders "column op operand" for a single condition, either as a bound placeholder or, when
// placeholder is false or value is a backtick keyword literal, an inlined SQL fragment.
func emit(column, op string, value any, placeholder bool, d *dialect.Dialect, values *[]any) (string, error) {
	mode := Bind
	if !placeholder {
		mode = Inline
	}

	fv, err := FormatValue(value, mode)
	if err != nil {
		return "", err
	}

	if fv.Mode == Inline {
		return fmt.Sprintf("%s %s %s", d.QuoteIdent(column), op, fv.Literal), nil
	}

	*values = append(*values, fv.Value)

	return fmt.Sprintf("%s %s %s", d.QuoteIdent(column), op, d.BindVar(len(*values), column)), nil
}

// compileInOperator expands an IN/NOT IN condition's sequence value into "col op (?, ?, ...)".
func compileInOperator(column, op string, value any, d *dialect.Dialect, values *[]any) (string, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return "", fmt.Errorf("%w: %s requires a sequence value", ErrSyntaxOrDialect, op)
	}

	placeholders := make([]string, rv.Len())

	for i := 0; i < rv.Len(); i++ {
		fv, err := FormatValue(rv.Index(i).Interface(), Bind)
		if err != nil {
			return "", err
		}

		if fv.Mode == Inline {
			placeholders[i] = fv.Literal
			continue
		}

		*values = append(*values, fv.Value)
		placeholders[i] = d.BindVar(len(*values), column)
	}

	return fmt.Sprintf("%s %s (%s)", d.QuoteIdent(column), op, strings.Join(placeholders, ", ")), nil
}
