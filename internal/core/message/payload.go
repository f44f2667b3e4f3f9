package message

import (
	"math"
	"reflect"
)

// maxExactFloat is the largest magnitude below which every integral
// float64 is exact
const maxExactFloat = 1 << 53

// NormalizePayload returns payload with every value converted to the type
// Decode produces for it: integers of any width and integral floats become
// int, float32 becomes float64, and typed slices and string-keyed maps
// become []any and map[string]any. Messages built from JSON or Go values
// then survive Encode and Decode unchanged.
func NormalizePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int:
		return v
	case float64:
		return normalizeFloat(val)
	case float32:
		return normalizeFloat(float64(val))
	case map[string]any:
		return NormalizePayload(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int(u)
		}
		return rv.Uint()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalizeValue(iter.Value().Interface())
		}
		return out
	}
	return v
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < maxExactFloat {
		return int(f)
	}
	return f
}
