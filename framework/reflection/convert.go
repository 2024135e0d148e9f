package reflection

import (
	"iter"
	"reflect"

	"github.com/km-arc/go-autowire/framework/errors"
)

// seqElem reports whether t has the shape of iter.Seq2[T, error] and returns T.
func seqElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 || t.IsVariadic() {
		return nil, false
	}
	y := t.In(0)
	if y.Kind() != reflect.Func || y.NumIn() != 2 || y.NumOut() != 1 || y.IsVariadic() {
		return nil, false
	}
	if y.In(1) != errorType || y.Out(0).Kind() != reflect.Bool {
		return nil, false
	}
	return y.In(0), true
}

// category groups kinds whose values convert into each other without change
// of meaning. Zero means "no conversion".
func category(k reflect.Kind) int {
	switch k {
	case reflect.Bool:
		return 1
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return 2
	case reflect.String:
		return 3
	case reflect.Complex64, reflect.Complex128:
		return 4
	}
	return 0
}

// convert adapts a resolved value to a field or setter argument type.
func convert(value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}
	v := reflect.ValueOf(value)
	vt := v.Type()

	switch {
	case vt.AssignableTo(target):
		return v, nil
	case vt.Kind() == reflect.Pointer && vt.Elem().AssignableTo(target):
		if v.IsNil() {
			return reflect.Zero(target), nil
		}
		return v.Elem(), nil
	case target.Kind() == reflect.Pointer && vt.AssignableTo(target.Elem()):
		p := reflect.New(target.Elem())
		p.Elem().Set(v)
		return p, nil
	case category(vt.Kind()) != 0 && category(vt.Kind()) == category(target.Kind()) && vt.ConvertibleTo(target):
		return v.Convert(target), nil
	case target.Kind() == reflect.Slice && (vt.Kind() == reflect.Slice || vt.Kind() == reflect.Array):
		out := reflect.MakeSlice(target, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			ev, err := convert(v.Index(i).Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "element %d", i)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}

	if elem, ok := seqElem(target); ok {
		if seq, ok := value.(iter.Seq2[any, error]); ok {
			return adaptSeq(seq, target, elem), nil
		}
	}
	return reflect.Value{}, errors.Errorf("cannot use %T as %s", value, target)
}

// adaptSeq wraps an untyped sequence into a typed iter.Seq2[T, error].
// Conversion failures are yielded as errors with a zero element.
func adaptSeq(seq iter.Seq2[any, error], target, elem reflect.Type) reflect.Value {
	return reflect.MakeFunc(target, func(in []reflect.Value) []reflect.Value {
		yield := in[0]
		for item, err := range seq {
			ev := reflect.Zero(elem)
			if err == nil {
				if cv, cerr := convert(item, elem); cerr != nil {
					err = cerr
				} else {
					ev = cv
				}
			}
			errV := reflect.Zero(errorType)
			if err != nil {
				errV = reflect.ValueOf(&err).Elem()
			}
			if !yield.Call([]reflect.Value{ev, errV})[0].Bool() {
				break
			}
		}
		return nil
	})
}
