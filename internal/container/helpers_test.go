package container

import (
	"errors"
	"fmt"
)

type testModel struct {
	id string
}

func (m *testModel) Identity() string { return m.id }

type testView struct {
	CID   string
	model *testModel
	calls [][]any
}

func newView(cid string) *testView { return &testView{CID: cid} }

func newModelView(cid string, m *testModel) *testView {
	return &testView{CID: cid, model: m}
}

func (v *testView) Identity() string { return v.CID }

func (v *testView) Owner() (Owner[string], bool) {
	if v.model == nil {
		return nil, false
	}
	return v.model, true
}

func (v *testView) SomeFunc(a, b string) {
	v.calls = append(v.calls, []any{a, b})
}

func (v *testView) Count(n int) int {
	v.calls = append(v.calls, []any{n})
	return n * 2
}

func (v *testView) SetByte(b uint8) {
	v.calls = append(v.calls, []any{b})
}

func (v *testView) SetRatio(f float32) {
	v.calls = append(v.calls, []any{f})
}

func (v *testView) Join(sep string, parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

var errBroken = errors.New("broken")

func (v *testView) Fail() error {
	v.calls = append(v.calls, nil)
	if v.CID == "b" {
		return errBroken
	}
	return nil
}

func (v *testView) Explode() { panic("boom") }

// plainView has no owner and none of testView's methods.
type plainView struct {
	id string
}

func (p plainView) Identity() string { return p.id }

func cids(c *Container[string, *testView]) []string {
	return Map(c, func(v *testView, _ int) string { return v.CID })
}

func views(n int) []*testView {
	out := make([]*testView, n)
	for i := range out {
		out[i] = newView(fmt.Sprintf("v%d", i))
	}
	return out
}
