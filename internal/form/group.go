package form

import (
	"fmt"
	"strconv"

	"github.com/solatis/formrel/internal/relation"
	"github.com/solatis/formrel/internal/types"
)

// Group holds named child controls in declaration order.
type Group struct {
	base
	order    []string
	controls map[string]AbstractControl
}

// NewGroup creates an empty, enabled group.
func NewGroup(name string) *Group {
	g := &Group{
		base:     base{name: name},
		controls: make(map[string]AbstractControl),
	}
	g.value, g.status = g.compute()
	return g
}

// Add appends a child. Fails with types.ErrDuplicateControl when the name
// is taken.
func (g *Group) Add(c AbstractControl) error {
	name := c.Name()
	if _, exists := g.controls[name]; exists {
		return fmt.Errorf("%w: %q in group %q", types.ErrDuplicateControl, name, g.Path())
	}
	c.state().parent = g
	g.order = append(g.order, name)
	g.controls[name] = c
	propagate(g)
	return nil
}

// Controls returns the children in declaration order.
func (g *Group) Controls() []AbstractControl {
	out := make([]AbstractControl, len(g.order))
	for i, name := range g.order {
		out[i] = g.controls[name]
	}
	return out
}

// Children implements relation.Branch.
func (g *Group) Children() []relation.Node {
	out := make([]relation.Node, len(g.order))
	for i, name := range g.order {
		out[i] = g.controls[name]
	}
	return out
}

// Find resolves a dotted path relative to g. Returns nil when not found.
func (g *Group) Find(path string) AbstractControl {
	return find(g, path)
}

// Get implements relation.Node. id may be a dotted path.
func (g *Group) Get(id string) relation.Node {
	if c := find(g, id); c != nil {
		return c
	}
	return nil
}

func (g *Group) Disabled() bool { return branchDisabled(&g.base, g.Controls()) }
func (g *Group) Enable()        { setDisabled(g, false) }
func (g *Group) Disable()       { setDisabled(g, true) }

func (g *Group) markDisabled(disabled bool) {
	g.disabled = disabled
	for _, c := range g.controls {
		c.markDisabled(disabled)
	}
}

// compute collects enabled children into a map. A disabled group reports
// every child.
func (g *Group) compute() (any, types.ControlStatus) {
	disabled := g.Disabled()
	value := make(map[string]any, len(g.order))
	for _, name := range g.order {
		c := g.controls[name]
		if disabled || !c.Disabled() {
			value[name] = c.Value()
		}
	}
	return value, branchStatus(disabled, g.Controls())
}

// Array holds positional child controls. Children are named by index.
type Array struct {
	base
	items []AbstractControl
}

// NewArray creates an empty, enabled array.
func NewArray(name string) *Array {
	a := &Array{base: base{name: name}}
	a.value, a.status = a.compute()
	return a
}

// Append adds c at the end and renames it to its index.
func (a *Array) Append(c AbstractControl) {
	s := c.state()
	s.name = strconv.Itoa(len(a.items))
	s.parent = a
	a.items = append(a.items, c)
	propagate(a)
}

// RemoveAt removes the item at i and renumbers the rest.
func (a *Array) RemoveAt(i int) error {
	if i < 0 || i >= len(a.items) {
		return fmt.Errorf("%w: index %d in array %q", types.ErrControlNotFound, i, a.Path())
	}
	removed := a.items[i]
	a.items = append(a.items[:i:i], a.items[i+1:]...)
	removed.state().parent = nil
	for j := i; j < len(a.items); j++ {
		a.items[j].state().name = strconv.Itoa(j)
	}
	propagate(a)
	return nil
}

// At returns the item at i, or nil when out of range.
func (a *Array) At(i int) AbstractControl {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

func (a *Array) Len() int { return len(a.items) }

// Controls returns the items in order.
func (a *Array) Controls() []AbstractControl {
	return append([]AbstractControl(nil), a.items...)
}

// Children implements relation.Branch.
func (a *Array) Children() []relation.Node {
	out := make([]relation.Node, len(a.items))
	for i, c := range a.items {
		out[i] = c
	}
	return out
}

// Find resolves a dotted path relative to a.
func (a *Array) Find(path string) AbstractControl {
	return find(a, path)
}

// Get implements relation.Node.
func (a *Array) Get(id string) relation.Node {
	if c := find(a, id); c != nil {
		return c
	}
	return nil
}

func (a *Array) Disabled() bool { return branchDisabled(&a.base, a.items) }
func (a *Array) Enable()        { setDisabled(a, false) }
func (a *Array) Disable()       { setDisabled(a, true) }

func (a *Array) markDisabled(disabled bool) {
	a.disabled = disabled
	for _, c := range a.items {
		c.markDisabled(disabled)
	}
}

func (a *Array) compute() (any, types.ControlStatus) {
	disabled := a.Disabled()
	value := make([]any, 0, len(a.items))
	for _, c := range a.items {
		if disabled || !c.Disabled() {
			value = append(value, c.Value())
		}
	}
	return value, branchStatus(disabled, a.items)
}

func find(start AbstractControl, path string) AbstractControl {
	segs, err := ParsePath(path)
	if err != nil {
		return nil
	}
	return walk(start, segs)
}

// branchDisabled: an empty branch keeps its own flag, otherwise it is
// disabled exactly when every child is.
func branchDisabled(b *base, children []AbstractControl) bool {
	if len(children) == 0 {
		return b.disabled
	}
	for _, c := range children {
		if !c.Disabled() {
			return false
		}
	}
	return true
}

func branchStatus(disabled bool, children []AbstractControl) types.ControlStatus {
	if disabled {
		return types.StatusDisabled
	}
	status := types.StatusValid
	for _, c := range children {
		switch c.Status() {
		case types.StatusInvalid:
			return types.StatusInvalid
		case types.StatusPending:
			status = types.StatusPending
		}
	}
	return status
}
