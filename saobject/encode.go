package saobject

import (
	"reflect"
	"time"
)

// EncodeValue converts an arbitrary property value into its canonical,
// serialization-ready form. Tagged primitives are emitted in wire form,
// time.Time values auto-convert to Timestamp, and containers are encoded
// recursively. Everything else passes through unchanged. EncodeValue never
// fails and has no side effects.
func EncodeValue(value any) any {
	switch v := value.(type) {
	case Timestamp:
		return v.Primitive()
	case Link:
		return v.Primitive()
	case time.Time:
		return TimestampFromTime(v).Primitive()
	case map[string]any:
		enc := make(map[string]any, len(v))
		for key, val := range v {
			enc[key] = EncodeValue(val)
		}
		return enc
	case []any:
		enc := make([]any, len(v))
		for i, val := range v {
			enc[i] = EncodeValue(val)
		}
		return enc
	case string, []byte, nil:
		return v
	}

	// Typed containers, such as []string or map[string]int, land here.
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		enc := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			enc[i] = EncodeValue(rv.Index(i).Interface())
		}
		return enc
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return value
		}
		enc := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			enc[iter.Key().String()] = EncodeValue(iter.Value().Interface())
		}
		return enc
	}

	return value
}
