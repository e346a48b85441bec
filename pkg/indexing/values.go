package indexing

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// ToFloat64 converts various numeric types to float64 for comparison
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// EncodeValue renders a value into the canonical form used as an index key.
// Numbers of different Go types with the same value encode identically.
func EncodeValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "z"
	case string:
		return "s:" + v
	case bool:
		if v {
			return "b:1"
		}
		return "b:0"
	case time.Time:
		return "t:" + v.UTC().Format(time.RFC3339Nano)
	}
	if n, ok := encodeNumber(value); ok {
		return "n:" + n
	}
	if m, ok := AsMap(value); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(EncodeValue(m[k]))
		}
		b.WriteString("}")
		return b.String()
	}
	if items, ok := AsSlice(value); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = EncodeValue(item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return fmt.Sprintf("%T:%v", value, value)
}

// encodeNumber renders integers exactly. Integral floats in int64 range use
// the integer form so 7.0 and 7 share a key; other floats keep their float form.
func encodeNumber(value interface{}) (string, bool) {
	switch v := value.(type) {
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return encodeFloat(float64(v)), true
	case float64:
		return encodeFloat(v), true
	}
	return "", false
}

func encodeFloat(f float64) string {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// AsMap returns value as a string-keyed map if it is one.
func AsMap(value interface{}) (map[string]interface{}, bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, true
	case domain.Document:
		return v, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// AsSlice returns the elements of an array value. Byte slices are scalars.
func AsSlice(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// PathValues resolves a dotted path against doc. Arrays met on the way are
// traversed element-wise and arrays at the end are expanded, so one document
// can yield several values. A missing path yields no values.
func PathValues(doc domain.Document, path string) []interface{} {
	return resolve(map[string]interface{}(doc), strings.Split(path, "."), false)
}

// MatchValues is PathValues plus every terminal array as a whole, the
// candidates an equality match compares against.
func MatchValues(doc domain.Document, path string) []interface{} {
	return resolve(map[string]interface{}(doc), strings.Split(path, "."), true)
}

func resolve(value interface{}, segments []string, keepArrays bool) []interface{} {
	if len(segments) == 0 {
		if items, ok := AsSlice(value); ok {
			if keepArrays {
				return append([]interface{}{value}, items...)
			}
			return items
		}
		return []interface{}{value}
	}
	if m, ok := AsMap(value); ok {
		next, exists := m[segments[0]]
		if !exists {
			return nil
		}
		return resolve(next, segments[1:], keepArrays)
	}
	if items, ok := AsSlice(value); ok {
		var out []interface{}
		for _, item := range items {
			out = append(out, resolve(item, segments, keepArrays)...)
		}
		return out
	}
	return nil
}

// Leaf is a scalar found below a wildcard prefix.
type Leaf struct {
	Path  string
	Value interface{}
}

// WalkLeaves collects every scalar reachable from value. Array elements keep
// the path of the array itself.
func WalkLeaves(path string, value interface{}, fn func(Leaf)) {
	if m, ok := AsMap(value); ok {
		for k, v := range m {
			child := k
			if path != "" {
				child = path + "." + k
			}
			WalkLeaves(child, v, fn)
		}
		return
	}
	if items, ok := AsSlice(value); ok {
		for _, item := range items {
			WalkLeaves(path, item, fn)
		}
		return
	}
	fn(Leaf{Path: path, Value: value})
}

// CopyDocument returns a deep copy of doc. Nested maps and arrays are
// rebuilt so later changes by the caller cannot reach the copy.
func CopyDocument(doc domain.Document) domain.Document {
	out := make(domain.Document, len(doc))
	for k, v := range doc {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep-copies maps and slices, keeping their types; other values
// are returned as is.
func CopyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return append([]byte(nil), v...)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = CopyValue(item)
		}
		return out
	case domain.Document:
		return CopyDocument(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = CopyValue(item)
		}
		return out
	}
	return copyReflect(reflect.ValueOf(value)).Interface()
}

func copyReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyElem(iter.Value(), rv.Type().Elem()))
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(copyElem(rv.Index(i), rv.Type().Elem()))
		}
		return out
	}
	return rv
}

func copyElem(rv reflect.Value, elemType reflect.Type) reflect.Value {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv
		}
		copied := CopyValue(rv.Interface())
		if copied == nil {
			return reflect.Zero(elemType)
		}
		return reflect.ValueOf(copied)
	}
	return copyReflect(rv)
}
