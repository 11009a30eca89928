package container

// Element is the capability every child must provide: a stable identity
// that is unique among the elements currently held by a container.
type Element[K comparable] interface {
	Identity() K
}

// Owner is an external object associated with an element. Only its identity
// is used.
type Owner[K comparable] interface {
	Identity() K
}

// Owned is implemented by elements that may carry an owner. The bool result
// reports whether an owner is present.
type Owned[K comparable] interface {
	Owner() (Owner[K], bool)
}

// ownerOf returns the owner of e if e implements Owned and has one.
func ownerOf[K comparable](e any) (Owner[K], bool) {
	o, ok := e.(Owned[K])
	if !ok {
		return nil, false
	}
	return o.Owner()
}
