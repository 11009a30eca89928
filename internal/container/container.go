package container

import (
	"log/slog"
	"maps"
	"slices"
)

// Container holds an ordered sequence of elements and keeps positional
// indices by identity, owner identity and custom key.
//
// The zero value is not usable; create containers with New.
type Container[K comparable, E Element[K]] struct {
	seq        []E
	byIdentity map[K]int
	byOwner    map[K]int
	byCustom   map[string]int
}

// New creates a container seeded with elems, added in order at positions
// 0..len(elems)-1.
func New[K comparable, E Element[K]](elems ...E) *Container[K, E] {
	c := &Container[K, E]{
		seq:        make([]E, 0, len(elems)),
		byIdentity: make(map[K]int, len(elems)),
		byOwner:    make(map[K]int),
		byCustom:   make(map[string]int),
	}
	for _, e := range elems {
		c.Add(e)
	}
	return c
}

// Len returns the number of elements held.
func (c *Container[K, E]) Len() int {
	return len(c.seq)
}

// Add inserts e and registers it in every applicable index.
// Returns the container for chaining.
func (c *Container[K, E]) Add(e E, opts ...AddOptions) *Container[K, E] {
	o := mergeOptions(opts)
	p := o.resolve(len(c.seq))

	// Shift before registering so the new entries are not shifted.
	c.shift(p, 1)

	c.seq = slices.Insert(c.seq, p, e)
	c.byIdentity[e.Identity()] = p
	if owner, ok := ownerOf[K](e); ok {
		c.byOwner[owner.Identity()] = p
	}
	if o.CustomKey != "" {
		c.byCustom[o.CustomKey] = p
	}
	return c
}

// Remove removes e from the container. Removing an element that is not
// indexed is a no-op. Returns the container for chaining.
func (c *Container[K, E]) Remove(e E) *Container[K, E] {
	if err := c.TryRemove(e); err != nil {
		slog.Debug("remove skipped", "identity", e.Identity(), "error", err)
	}
	return c
}

// TryRemove removes e and reports an error matching ErrNotFound when e's
// identity is not indexed. The container is unchanged on error.
func (c *Container[K, E]) TryRemove(e E) error {
	id := e.Identity()
	p, ok := c.byIdentity[id]
	if !ok {
		return newNotFoundError(id)
	}

	delete(c.byIdentity, id)
	if owner, ok := ownerOf[K](e); ok {
		delete(c.byOwner, owner.Identity())
	}
	for key, pos := range c.byCustom {
		if pos == p {
			delete(c.byCustom, key)
		}
	}

	c.seq = slices.Delete(c.seq, p, p+1)
	c.shift(p+1, -1)
	return nil
}

// shift adds delta to every stored position >= from, in all three indices.
func (c *Container[K, E]) shift(from, delta int) {
	for k, pos := range c.byIdentity {
		if pos >= from {
			c.byIdentity[k] = pos + delta
		}
	}
	for k, pos := range c.byOwner {
		if pos >= from {
			c.byOwner[k] = pos + delta
		}
	}
	for k, pos := range c.byCustom {
		if pos >= from {
			c.byCustom[k] = pos + delta
		}
	}
}

// FindByIdentity returns the element with the given identity.
func (c *Container[K, E]) FindByIdentity(id K) (E, bool) {
	return c.at(c.byIdentity, id)
}

// FindByOwner returns the element most recently added with owner o.
func (c *Container[K, E]) FindByOwner(o Owner[K]) (E, bool) {
	return c.FindByOwnerIdentity(o.Identity())
}

// FindByOwnerIdentity returns the element most recently added with an owner
// whose identity is id.
func (c *Container[K, E]) FindByOwnerIdentity(id K) (E, bool) {
	return c.at(c.byOwner, id)
}

// FindByCustom returns the element registered under key.
func (c *Container[K, E]) FindByCustom(key string) (E, bool) {
	p, ok := c.byCustom[key]
	if !ok {
		var zero E
		return zero, false
	}
	return c.FindByPosition(p)
}

// FindByPosition returns the element at position p.
func (c *Container[K, E]) FindByPosition(p int) (E, bool) {
	if p < 0 || p >= len(c.seq) {
		var zero E
		return zero, false
	}
	return c.seq[p], true
}

// PositionOf returns the current position of the element with identity id.
func (c *Container[K, E]) PositionOf(id K) (int, bool) {
	p, ok := c.byIdentity[id]
	return p, ok
}

// Keys returns the registered custom keys in sorted order.
func (c *Container[K, E]) Keys() []string {
	return slices.Sorted(maps.Keys(c.byCustom))
}

func (c *Container[K, E]) at(index map[K]int, key K) (E, bool) {
	p, ok := index[key]
	if !ok {
		var zero E
		return zero, false
	}
	return c.FindByPosition(p)
}

// Check verifies that every index agrees with the sequence:
//   - each element's identity maps to its own position
//   - each owner entry points at an element carrying that owner
//   - each custom entry points inside the sequence
//
// Returns an INVARIANT error describing the first disagreement.
func (c *Container[K, E]) Check() error {
	if len(c.byIdentity) != len(c.seq) {
		return newInvariantError("identity index has %d entries for %d elements", len(c.byIdentity), len(c.seq))
	}
	for p, e := range c.seq {
		got, ok := c.byIdentity[e.Identity()]
		if !ok || got != p {
			return newInvariantError("identity %v indexed at %d, held at %d", e.Identity(), got, p)
		}
	}
	for id, p := range c.byOwner {
		e, ok := c.FindByPosition(p)
		if !ok {
			return newInvariantError("owner %v indexed at out-of-range position %d", id, p)
		}
		owner, has := ownerOf[K](e)
		if !has || owner.Identity() != id {
			return newInvariantError("owner %v indexed at %d, element there has a different owner", id, p)
		}
	}
	for key, p := range c.byCustom {
		if p < 0 || p >= len(c.seq) {
			return newInvariantError("custom key %q indexed at out-of-range position %d", key, p)
		}
	}
	return nil
}
