package native

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"
)

// ErrUnhandledResultType is returned for targets that are neither a slice,
// an array nor an iter.Seq[T]. Keyed sequences (iter.Seq2) are not
// collections of records and are rejected too.
var ErrUnhandledResultType = errors.New("unhandled result type")

// IsCollection reports whether target can be materialized by Collect.
func IsCollection(target any) bool {
	switch target.(type) {
	case nil:
		return false
	case []any, iter.Seq[any]:
		return true
	}
	t := reflect.TypeOf(target)
	if _, ok := seqElem(t); ok {
		return true
	}
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

// seqElem returns T when t has the shape of iter.Seq[T], that is
// func(yield func(T) bool).
func seqElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 {
		return nil, false
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.NumIn() != 1 || yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
		return nil, false
	}
	return yield.In(0), true
}

// Collect materializes target into a slice, draining iterators once. The
// returned function rebuilds a container of the caller's shape: a slice of
// the same type for slices and arrays, an iterator of the same type for
// iter.Seq[T].
func Collect(target any) ([]any, func([]any) any, error) {
	switch t := target.(type) {
	case []any:
		return slices.Clone(t), func(items []any) any { return items }, nil
	case iter.Seq[any]:
		return slices.Collect(t), func(items []any) any { return slices.Values(items) }, nil
	case nil:
		return nil, nil, fmt.Errorf("%w: <nil>", ErrUnhandledResultType)
	}

	rv := reflect.ValueOf(target)
	if elem, ok := seqElem(rv.Type()); ok {
		return collectSeq(rv, elem)
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, nil, fmt.Errorf("%w: %T", ErrUnhandledResultType, target)
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}

	sliceType := rv.Type()
	if sliceType.Kind() == reflect.Array {
		sliceType = reflect.SliceOf(sliceType.Elem())
	}
	rebuild := func(items []any) any {
		out := reflect.MakeSlice(sliceType, len(items), len(items))
		for i, item := range items {
			if item == nil {
				continue
			}
			out.Index(i).Set(reflect.ValueOf(item))
		}
		return out.Interface()
	}
	return items, rebuild, nil
}

func collectSeq(seq reflect.Value, elem reflect.Type) ([]any, func([]any) any, error) {
	if seq.IsNil() {
		return nil, nil, fmt.Errorf("%w: nil %s", ErrUnhandledResultType, seq.Type())
	}

	var items []any
	yieldType := seq.Type().In(0)
	yield := reflect.MakeFunc(yieldType, func(args []reflect.Value) []reflect.Value {
		items = append(items, args[0].Interface())
		return []reflect.Value{reflect.ValueOf(true)}
	})
	seq.Call([]reflect.Value{yield})

	seqType := seq.Type()
	rebuild := func(items []any) any {
		return reflect.MakeFunc(seqType, func(args []reflect.Value) []reflect.Value {
			yield := args[0]
			for _, item := range items {
				v := reflect.Zero(elem)
				if item != nil {
					v = reflect.ValueOf(item)
				}
				if !yield.Call([]reflect.Value{v})[0].Bool() {
					break
				}
			}
			return nil
		}).Interface()
	}
	return items, rebuild, nil
}

// Len returns the number of elements of a collection, draining iterators.
func Len(target any) (int, error) {
	items, _, err := Collect(target)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
