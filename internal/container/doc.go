// Package container provides an ordered, multi-indexed collection of child
// elements.
//
// A Container keeps its elements in positional order and maintains three
// lookup maps from a key to a position in that order:
//   - identity: every element's own Identity()
//   - owner: the Identity() of the element's owner, when it has one
//   - custom: an optional caller-chosen string key supplied on Add
//
// # Index Bookkeeping
//
// Add and Remove are the only mutators. Inserting at position p shifts every
// stored position >= p up by one before the new element is registered;
// removing the element at p drops its entries and shifts every stored
// position > p down by one. No other operation touches the maps, so after
// each Add or Remove every stored position refers to a live element.
//
// # Usage
//
//	views := container.New[string, *view.View](a, b, c)
//	views.Add(d, container.AddOptions{At: container.Position(1), CustomKey: "footer"})
//	v, ok := views.FindByCustom("footer")
//	views.Remove(a)
//	if err := views.Call("Render"); err != nil {
//	    return err
//	}
//
// # Reentrancy
//
// A Container does no locking and assumes a single writer. Callers must not
// Add or Remove on the same container from inside a method invoked by Apply,
// Call or Invoke, or from a projection callback such as Each or Filter.
package container
