package native

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Resolve walks path through record. Missing properties resolve to nil.
func Resolve(record any, path []string) any {
	v := record
	for _, seg := range path {
		if v == nil {
			return nil
		}
		v = step(v, seg)
	}
	return v
}

func step(v any, seg string) any {
	switch c := v.(type) {
	case map[string]any:
		return c[seg]
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(c) {
			return nil
		}
		return c[i]
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		key, ok := mapKey(rv.Type().Key(), seg)
		if !ok {
			return nil
		}
		elem := rv.MapIndex(key)
		if !elem.IsValid() || !elem.CanInterface() {
			return nil
		}
		return elem.Interface()
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil
		}
		return rv.Index(i).Interface()
	case reflect.Struct:
		f, ok := structField(rv, seg)
		if !ok {
			return nil
		}
		return f.Interface()
	}
	return nil
}

func mapKey(keyType reflect.Type, seg string) (reflect.Value, bool) {
	switch keyType.Kind() {
	case reflect.String:
		return reflect.ValueOf(seg).Convert(keyType), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(seg, 10, 64)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(i).Convert(keyType), true
	case reflect.Interface:
		return reflect.ValueOf(seg), true
	}
	return reflect.Value{}, false
}

// structField finds an exported field by exact name, json tag, then
// case-insensitive name.
func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		return rv.FieldByIndex(f.Index), true
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name {
			return rv.Field(i), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// value classes, ordered: values of different classes compare by class.
const (
	classNil = iota
	classBool
	classNumber
	classString
	classTime
	classOther
)

// Compare orders two values: nil < booleans < numbers < strings < times <
// anything else (by formatted text). Numbers compare numerically across
// integer and float kinds; strings compare after NFC normalization.
func Compare(a, b any) int {
	a, b = deref(a), deref(b)
	ca, cb := class(a), class(b)
	if ca != cb {
		return cmpInt(ca, cb)
	}

	switch ca {
	case classNil:
		return 0
	case classBool:
		ab, bb := reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool()
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case classNumber:
		return compareNumbers(reflect.ValueOf(a), reflect.ValueOf(b))
	case classString:
		return strings.Compare(norm.NFC.String(reflect.ValueOf(a).String()), norm.NFC.String(reflect.ValueOf(b).String()))
	case classTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func class(v any) int {
	if v == nil {
		return classNil
	}
	if _, ok := v.(time.Time); ok {
		return classTime
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool:
		return classBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return classNumber
	case reflect.String:
		return classString
	}
	return classOther
}

func compareNumbers(a, b reflect.Value) int {
	switch {
	case a.CanInt() && b.CanInt():
		return cmpInt(a.Int(), b.Int())
	case a.CanUint() && b.CanUint():
		return cmpInt(a.Uint(), b.Uint())
	case a.CanInt() && b.CanUint():
		return compareSignedUnsigned(a.Int(), b.Uint())
	case a.CanUint() && b.CanInt():
		return -compareSignedUnsigned(b.Int(), a.Uint())
	}
	return cmpInt(toFloat(a), toFloat(b))
}

// compareSignedUnsigned compares without going through float64, which
// loses precision above 2^53.
func compareSignedUnsigned(i int64, u uint64) int {
	if i < 0 {
		return -1
	}
	return cmpInt(uint64(i), u)
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	}
	return v.Float()
}

func cmpInt[T int | int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Truthy reports the boolean reading of a value: false, nil, zero numbers
// and empty strings are false.
func Truthy(v any) bool {
	v = deref(v)
	if v == nil {
		return false
	}
	switch class(v) {
	case classBool:
		return reflect.ValueOf(v).Bool()
	case classNumber:
		return toFloat(reflect.ValueOf(v)) != 0
	case classString:
		return reflect.ValueOf(v).String() != ""
	}
	return true
}
