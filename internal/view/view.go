package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/babysitter/internal/container"
)

// ErrClosed is returned by Close on a view that is already closed.
var ErrClosed = errors.New("view already closed")

// Model is the owner a view may be bound to.
type Model struct {
	ID string `json:"id"`
}

// Identity implements container.Owner.
func (m *Model) Identity() string {
	return m.ID
}

// View is a child element held by a container.
type View struct {
	CID     string
	Model   *Model
	Visible bool
	Closed  bool

	// Calls records method invocations as "Method(arg, ...)" in order.
	Calls []string

	// Tags holds values set through Tag.
	Tags map[string]string
}

// New creates a view with the given cid and optional model.
func New(cid string, model *Model) *View {
	return &View{CID: cid, Model: model, Tags: map[string]string{}}
}

// Identity implements container.Element.
func (v *View) Identity() string {
	return v.CID
}

// Owner implements container.Owned.
func (v *View) Owner() (container.Owner[string], bool) {
	if v.Model == nil {
		return nil, false
	}
	return v.Model, true
}

// Render marks the view as rendered.
func (v *View) Render() {
	v.record("Render")
}

// SetVisible toggles visibility.
func (v *View) SetVisible(visible bool) {
	v.record("SetVisible", visible)
	v.Visible = visible
}

// Tag stores value under key.
func (v *View) Tag(key, value string) {
	v.record("Tag", key, value)
	v.Tags[key] = value
}

// Close shuts the view down. Closing twice returns ErrClosed.
func (v *View) Close() error {
	v.record("Close")
	if v.Closed {
		return fmt.Errorf("close %s: %w", v.CID, ErrClosed)
	}
	v.Closed = true
	return nil
}

// CallCount returns how many recorded calls were made to method.
func (v *View) CallCount(method string) int {
	n := 0
	for _, c := range v.Calls {
		if name, _, _ := strings.Cut(c, "("); name == method {
			n++
		}
	}
	return n
}

func (v *View) record(method string, args ...any) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	v.Calls = append(v.Calls, method+"("+strings.Join(parts, ", ")+")")
}

// Container is the container type used for views.
type Container = container.Container[string, *View]

// NewContainer creates a view container seeded with views.
func NewContainer(views ...*View) *Container {
	return container.New[string](views...)
}
