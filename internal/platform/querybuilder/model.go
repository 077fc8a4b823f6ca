package querybuilder

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

// InsertModel starts an insert from the db-tagged fields of model.
func InsertModel(table string, model any) (*InsertBuilder, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return nil, err
	}
	return InsertInto(table).Columns(cols...).Values(vals...), nil
}

// UpsertModel inserts model and, on conflict over key, updates every other
// column. guard is an optional DO UPDATE ... WHERE expression.
func UpsertModel(table string, model any, key []string, guard string) (string, []any, error) {
	builder, err := InsertModel(table, model)
	if err != nil {
		return "", nil, err
	}

	keys := make(map[string]struct{}, len(key))
	for _, k := range key {
		keys[k] = struct{}{}
	}
	updates := make([]string, 0, len(builder.columns))
	for _, col := range builder.columns {
		if _, ok := keys[col]; !ok {
			updates = append(updates, col)
		}
	}

	builder.OnConflict(key...).DoUpdate(updates...)
	if guard != "" {
		builder.DoUpdateWhere(guard)
	}
	return builder.ToSQL()
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, errors.New("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, errors.New("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		tag := strings.TrimSpace(field.Tag.Get("db"))
		if tag == "" || tag == "-" {
			continue
		}
		col := strings.TrimSpace(strings.Split(tag, ",")[0])
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, errors.New("model has no db columns")
	}
	return cols, vals, nil
}
