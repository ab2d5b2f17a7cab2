package convert

import (
	"fmt"
	"reflect"
)

var errNotSlice = fmt.Errorf("input data is not a slice")
var errNotMapElement = fmt.Errorf("slice element is not a map[string]any")
var errNotScalarElement = fmt.Errorf("slice element is not a scalar")

// ToSliceOfString converts any slice to []string by formatting each element.
// A single scalar becomes a one-element slice, nil becomes empty.
func ToSliceOfString(data any) ([]string, error) {
	if data == nil {
		return []string{}, nil
	}
	if slice, ok := data.([]string); ok {
		return slice, nil
	}

	val := reflect.ValueOf(data)
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
	case reflect.String, reflect.Bool, reflect.Int, reflect.Int64, reflect.Float64:
		return []string{fmt.Sprintf("%v", data)}, nil
	default:
		return nil, fmt.Errorf("%w: input type %T", errNotSlice, data)
	}

	result := make([]string, 0, val.Len())
	for i := 0; i < val.Len(); i++ {
		result = append(result, fmt.Sprintf("%v", val.Index(i).Interface()))
	}
	return result, nil
}

// ToScalarStrings is like ToSliceOfString but refuses nested containers, so
// callers can tell a list of names from a list of records.
func ToScalarStrings(data any) ([]string, error) {
	if data == nil {
		return []string{}, nil
	}
	if slice, ok := data.([]string); ok {
		return slice, nil
	}

	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: input type %T", errNotSlice, data)
	}

	result := make([]string, 0, val.Len())
	for i := 0; i < val.Len(); i++ {
		item := val.Index(i)
		for item.Kind() == reflect.Interface && !item.IsNil() {
			item = item.Elem()
		}
		switch item.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Interface:
			return nil, fmt.Errorf("index %d: %w (type %s)", i, errNotScalarElement, item.Kind())
		}
		result = append(result, fmt.Sprintf("%v", item.Interface()))
	}
	return result, nil
}

// ToSliceOfMap converts []map[string]any or []any of maps to []map[string]any.
func ToSliceOfMap(data any) ([]map[string]any, error) {
	if data == nil {
		return []map[string]any{}, nil
	}
	if sliceMap, ok := data.([]map[string]any); ok {
		return sliceMap, nil
	}

	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: input type %T", errNotSlice, data)
	}

	result := make([]map[string]any, 0, val.Len())
	for i := 0; i < val.Len(); i++ {
		item := val.Index(i).Interface()
		mapItem, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("index %d: %w (type %T)", i, errNotMapElement, item)
		}
		result = append(result, mapItem)
	}
	return result, nil
}
