package types

import "reflect"

// Name returns the unqualified type name of v, dereferencing any number of pointers first.
// A nil interface value yields "<nil>", matching fmt's own rendering of an untyped nil.
func Name(v interface{}) string {
	if v == nil {
		return "<nil>"
	}

	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Name()
}
