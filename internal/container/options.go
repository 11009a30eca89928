package container

// AddOptions controls where and how an element is registered by Add.
type AddOptions struct {
	// At is the target insertion position. Nil appends. Values past the end
	// are clamped to Len() and negative values to 0.
	At *int

	// CustomKey registers the element for FindByCustom. Empty registers nothing.
	CustomKey string
}

// Position returns a pointer to p for use in AddOptions.At.
func Position(p int) *int {
	return &p
}

// mergeOptions folds variadic options left to right; later fields win.
func mergeOptions(opts []AddOptions) AddOptions {
	var merged AddOptions
	for _, o := range opts {
		if o.At != nil {
			merged.At = o.At
		}
		if o.CustomKey != "" {
			merged.CustomKey = o.CustomKey
		}
	}
	return merged
}

// resolve returns the insertion position for a container of length n.
func (o AddOptions) resolve(n int) int {
	if o.At == nil {
		return n
	}
	p := *o.At
	if p > n {
		return n
	}
	if p < 0 {
		return 0
	}
	return p
}
