package container

import (
	"iter"
	"reflect"
	"slices"
)

// Projections operate on a snapshot of the sequence taken when they are
// called. None of them touch the indices.

// All returns an iterator over positions and elements in order.
func (c *Container[K, E]) All() iter.Seq2[int, E] {
	return slices.All(c.ToSlice())
}

// Values returns an iterator over the elements in order.
func (c *Container[K, E]) Values() iter.Seq[E] {
	return slices.Values(c.ToSlice())
}

// ToSlice returns a copy of the elements in order.
func (c *Container[K, E]) ToSlice() []E {
	return slices.Clone(c.seq)
}

// Each calls fn with every element and its position.
func (c *Container[K, E]) Each(fn func(e E, pos int)) {
	for i, e := range c.All() {
		fn(e, i)
	}
}

// ForEach is an alias for Each.
func (c *Container[K, E]) ForEach(fn func(e E, pos int)) {
	c.Each(fn)
}

// Map returns fn applied to every element of c, in order.
func Map[K comparable, E Element[K], R any](c *Container[K, E], fn func(e E, pos int) R) []R {
	out := make([]R, 0, c.Len())
	for i, e := range c.All() {
		out = append(out, fn(e, i))
	}
	return out
}

// Find returns the first element satisfying pred.
func (c *Container[K, E]) Find(pred func(E) bool) (E, bool) {
	for e := range c.Values() {
		if pred(e) {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// Detect is an alias for Find.
func (c *Container[K, E]) Detect(pred func(E) bool) (E, bool) {
	return c.Find(pred)
}

// Filter returns the elements satisfying pred, in order.
func (c *Container[K, E]) Filter(pred func(E) bool) []E {
	var out []E
	for e := range c.Values() {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Select is an alias for Filter.
func (c *Container[K, E]) Select(pred func(E) bool) []E {
	return c.Filter(pred)
}

// Reject returns the elements not satisfying pred, in order.
func (c *Container[K, E]) Reject(pred func(E) bool) []E {
	return c.Filter(func(e E) bool { return !pred(e) })
}

// Every reports whether pred holds for all elements. True when empty.
func (c *Container[K, E]) Every(pred func(E) bool) bool {
	for e := range c.Values() {
		if !pred(e) {
			return false
		}
	}
	return true
}

// Any reports whether pred holds for at least one element.
func (c *Container[K, E]) Any(pred func(E) bool) bool {
	_, ok := c.Find(pred)
	return ok
}

// Some is an alias for Any.
func (c *Container[K, E]) Some(pred func(E) bool) bool {
	return c.Any(pred)
}

// Contains reports whether an element with e's identity is held.
func (c *Container[K, E]) Contains(e E) bool {
	_, ok := c.byIdentity[e.Identity()]
	return ok
}

// Include is an alias for Contains.
func (c *Container[K, E]) Include(e E) bool {
	return c.Contains(e)
}

// First returns the element at position 0.
func (c *Container[K, E]) First() (E, bool) {
	return c.FindByPosition(0)
}

// Last returns the element at position Len()-1.
func (c *Container[K, E]) Last() (E, bool) {
	return c.FindByPosition(len(c.seq) - 1)
}

// Initial returns every element but the last.
func (c *Container[K, E]) Initial() []E {
	if len(c.seq) == 0 {
		return nil
	}
	return slices.Clone(c.seq[:len(c.seq)-1])
}

// Rest returns every element but the first.
func (c *Container[K, E]) Rest() []E {
	if len(c.seq) == 0 {
		return nil
	}
	return slices.Clone(c.seq[1:])
}

// Without returns the elements whose identity differs from all of excluded.
func (c *Container[K, E]) Without(excluded ...E) []E {
	drop := make(map[K]struct{}, len(excluded))
	for _, e := range excluded {
		drop[e.Identity()] = struct{}{}
	}
	return c.Filter(func(e E) bool {
		_, skip := drop[e.Identity()]
		return !skip
	})
}

// IsEmpty reports whether the container holds no elements.
func (c *Container[K, E]) IsEmpty() bool {
	return len(c.seq) == 0
}

// Pluck returns the named exported struct field of every element, in order.
// Pointers are followed; entries are nil where the field does not exist.
func (c *Container[K, E]) Pluck(field string) []any {
	return Map(c, func(e E, _ int) any {
		v := reflect.ValueOf(e)
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return nil
		}
		f := v.FieldByName(field)
		if !f.IsValid() || !f.CanInterface() {
			return nil
		}
		return f.Interface()
	})
}
