package container

import (
	"fmt"
	"math"
	"reflect"
	"slices"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Apply calls the exported method named method on every element in order,
// passing args positionally. Elements without such a method are skipped.
//
// The method is resolved on the element's dynamic value, so pointer-receiver
// methods are only found when elements are stored as pointers.
//
// If the method's last result is a non-nil error, iteration stops and the
// error is returned wrapped in an INVOKE_FAILED Error. Arguments that cannot
// be passed to the method stop iteration with a BAD_ARGUMENTS Error. Elements
// already visited are not rolled back. Panics raised by a method propagate.
func (c *Container[K, E]) Apply(method string, args []any) error {
	for _, e := range slices.Clone(c.seq) {
		if _, err := invoke[K](e, method, args); err != nil {
			return err
		}
	}
	return nil
}

// Call is Apply with the arguments given inline.
func (c *Container[K, E]) Call(method string, args ...any) error {
	return c.Apply(method, args)
}

// Invoke calls method on every element like Apply and collects the first
// non-error result of each call, one entry per element. Entries are nil for
// elements lacking the method or for methods returning only an error.
func (c *Container[K, E]) Invoke(method string, args ...any) ([]any, error) {
	snapshot := slices.Clone(c.seq)
	results := make([]any, len(snapshot))
	for i, e := range snapshot {
		out, err := invoke[K](e, method, args)
		if err != nil {
			return results[:i], err
		}
		results[i] = out
	}
	return results, nil
}

// invoke calls method on e. A missing method is not an error.
func invoke[K comparable](e Element[K], method string, args []any) (any, error) {
	m := reflect.ValueOf(e).MethodByName(method)
	if !m.IsValid() {
		return nil, nil
	}

	in, err := buildArgs(m.Type(), args)
	if err != nil {
		return nil, newArgumentError(method, e.Identity(), "%v", err)
	}

	out := m.Call(in)

	var first any
	for i, v := range out {
		if i == len(out)-1 && v.Type() == errorType {
			if !v.IsNil() {
				return nil, newInvokeError(method, e.Identity(), v.Interface().(error))
			}
			continue
		}
		if first == nil {
			first = v.Interface()
		}
	}
	return first, nil
}

// buildArgs converts args into call values for a method of type mt.
func buildArgs(mt reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := mt.NumIn()
	if mt.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("want at least %d arguments, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("want %d arguments, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var want reflect.Type
		if i < fixed {
			want = mt.In(i)
		} else {
			want = mt.In(mt.NumIn() - 1).Elem()
		}
		v, err := convertArg(a, want)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %v", i, err)
		}
		in[i] = v
	}
	return in, nil
}

// convertArg adapts a to type want. Untyped nil becomes the zero value of
// nilable types; numeric values convert between numeric kinds.
func convertArg(a any, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch want.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not a valid %s", want)
	}

	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(want.Kind()) {
		if err := checkNumeric(v, want); err != nil {
			return reflect.Value{}, err
		}
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), want)
}

// checkNumeric reports whether v converts to want without losing its value.
func checkNumeric(v reflect.Value, want reflect.Type) error {
	zero := reflect.Zero(want)
	lossy := fmt.Errorf("%v does not fit in %s", v.Interface(), want)

	switch {
	case isInt(v.Kind()):
		i := v.Int()
		switch {
		case isInt(want.Kind()):
			if zero.OverflowInt(i) {
				return lossy
			}
		case isUint(want.Kind()):
			if i < 0 || zero.OverflowUint(uint64(i)) {
				return lossy
			}
		}
	case isUint(v.Kind()):
		u := v.Uint()
		switch {
		case isInt(want.Kind()):
			if u > math.MaxInt64 || zero.OverflowInt(int64(u)) {
				return lossy
			}
		case isUint(want.Kind()):
			if zero.OverflowUint(u) {
				return lossy
			}
		}
	default:
		f := v.Float()
		switch {
		case isInt(want.Kind()):
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 || zero.OverflowInt(int64(f)) {
				return lossy
			}
		case isUint(want.Kind()):
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 || zero.OverflowUint(uint64(f)) {
				return lossy
			}
		default:
			if zero.OverflowFloat(f) {
				return lossy
			}
		}
	}
	return nil
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
