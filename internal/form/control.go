// internal/form/control.go
package form

import (
	"reflect"
	"strings"

	"github.com/solatis/formrel/internal/relation"
	"github.com/solatis/formrel/internal/types"
)

/*
 * Reactive control tree.
 *
 * Three control kinds make up a form:
 *   - Control: a leaf holding one value and its validators
 *   - Group: named children in declaration order
 *   - Array: positional children, usually groups built from a template
 *
 * Every kind implements relation.Node; Group and Array also implement
 * relation.Branch, so the relation engine reads the tree directly.
 *
 * Derived state (value and status) is recomputed from the changed node up to
 * the root. Subscribers are notified only when a node's value (deep
 * comparison) or status actually changes, child before parent.
 *
 * Status:
 *   - DISABLED when the node is disabled (a branch is disabled when all of
 *     its children are)
 *   - INVALID when a leaf validator fails or any enabled child is INVALID
 *   - PENDING when any enabled child is PENDING
 *   - VALID otherwise
 *
 * A tree is not safe for concurrent use. Callers build one tree per
 * evaluation or serialize access.
 */

// AbstractControl is implemented by *Control, *Group and *Array.
type AbstractControl interface {
	relation.Node

	// Name is the key under the parent: child name or array index.
	Name() string
	// Path is the dotted path from the root.
	Path() string
	Disabled() bool
	Enable()
	Disable()
	OnValueChange(fn func(value any)) (unsubscribe func())
	OnStatusChange(fn func(status types.ControlStatus)) (unsubscribe func())

	state() *base
	compute() (any, types.ControlStatus)
	markDisabled(disabled bool)
}

type valueSub struct {
	id int
	fn func(any)
}

type statusSub struct {
	id int
	fn func(types.ControlStatus)
}

// base carries the state shared by every control kind.
type base struct {
	name     string
	parent   AbstractControl
	disabled bool
	value    any
	status   types.ControlStatus

	valueSubs  []valueSub
	statusSubs []statusSub
	nextSub    int
}

func (b *base) state() *base                { return b }
func (b *base) Name() string                { return b.name }
func (b *base) Value() any                  { return b.value }
func (b *base) Status() types.ControlStatus { return b.status }

// Parent returns the containing branch, or nil at the root.
func (b *base) Parent() relation.Node {
	if b.parent == nil {
		return nil
	}
	return b.parent
}

// Path returns the dotted path from the root. The root itself has path "".
func (b *base) Path() string {
	var parts []string
	for s := b; s.parent != nil && len(parts) <= types.MaxTreeDepth; s = s.parent.state() {
		parts = append(parts, s.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

func (b *base) OnValueChange(fn func(any)) func() {
	id := b.nextSub
	b.nextSub++
	b.valueSubs = append(b.valueSubs, valueSub{id: id, fn: fn})
	return func() {
		for i, s := range b.valueSubs {
			if s.id == id {
				b.valueSubs = append(b.valueSubs[:i:i], b.valueSubs[i+1:]...)
				return
			}
		}
	}
}

func (b *base) OnStatusChange(fn func(types.ControlStatus)) func() {
	id := b.nextSub
	b.nextSub++
	b.statusSubs = append(b.statusSubs, statusSub{id: id, fn: fn})
	return func() {
		for i, s := range b.statusSubs {
			if s.id == id {
				b.statusSubs = append(b.statusSubs[:i:i], b.statusSubs[i+1:]...)
				return
			}
		}
	}
}

// emit snapshots the subscriber lists so handlers may unsubscribe.
func (b *base) emit(valueChanged, statusChanged bool) {
	if valueChanged {
		subs := append([]valueSub(nil), b.valueSubs...)
		for _, s := range subs {
			s.fn(b.value)
		}
	}
	if statusChanged {
		subs := append([]statusSub(nil), b.statusSubs...)
		for _, s := range subs {
			s.fn(b.status)
		}
	}
}

// refresh recomputes n's derived state and notifies on change.
func refresh(n AbstractControl) {
	b := n.state()
	value, status := n.compute()
	valueChanged := !reflect.DeepEqual(value, b.value)
	statusChanged := status != b.status
	b.value, b.status = value, status
	b.emit(valueChanged, statusChanged)
}

// propagate refreshes n and every ancestor.
func propagate(n AbstractControl) {
	depth := 0
	for ; n != nil && depth <= types.MaxTreeDepth; n = n.state().parent {
		refresh(n)
		depth++
	}
}

// refreshTree refreshes every node below n, children before parents.
func refreshTree(n AbstractControl) {
	for _, c := range childrenOf(n) {
		refreshTree(c)
	}
	refresh(n)
}

// setDisabled toggles n and its descendants, then updates the ancestors.
func setDisabled(n AbstractControl, disabled bool) {
	n.markDisabled(disabled)
	refreshTree(n)
	if p := n.state().parent; p != nil {
		propagate(p)
	}
}

func childrenOf(n AbstractControl) []AbstractControl {
	switch b := n.(type) {
	case *Group:
		return b.Controls()
	case *Array:
		return b.Controls()
	default:
		return nil
	}
}

// Control is a leaf control.
type Control struct {
	base
	raw        any
	required   bool
	validators []validator
	errors     []string
}

// NewControl creates a leaf with an initial value and validators.
// Fails only when a validator cannot be compiled (bad pattern).
func NewControl(name string, value any, vs ValidatorSet) (*Control, error) {
	validators, err := vs.compile()
	if err != nil {
		return nil, err
	}
	c := &Control{
		base:       base{name: name},
		raw:        value,
		required:   vs.Required,
		validators: validators,
	}
	c.value, c.status = c.compute()
	return c, nil
}

// Get returns nil: a leaf has no children.
func (c *Control) Get(string) relation.Node { return nil }

func (c *Control) Disabled() bool { return c.disabled }
func (c *Control) Enable()        { setDisabled(c, false) }
func (c *Control) Disable()       { setDisabled(c, true) }

func (c *Control) markDisabled(disabled bool) { c.disabled = disabled }

// SetValue replaces the value and revalidates up to the root.
func (c *Control) SetValue(value any) {
	c.raw = value
	propagate(c)
}

// Required reports whether the required validator is active.
func (c *Control) Required() bool { return c.required }

// SetRequired toggles the required validator.
func (c *Control) SetRequired(required bool) {
	if c.required == required {
		return
	}
	c.required = required
	propagate(c)
}

// Errors lists the names of failing validators. Empty when disabled.
func (c *Control) Errors() []string {
	return append([]string(nil), c.errors...)
}

func (c *Control) compute() (any, types.ControlStatus) {
	c.errors = nil
	if c.disabled {
		return c.raw, types.StatusDisabled
	}
	if isEmpty(c.raw) {
		if c.required {
			c.errors = append(c.errors, ValidatorRequired)
			return c.raw, types.StatusInvalid
		}
		return c.raw, types.StatusValid
	}
	for _, v := range c.validators {
		if !v.check(c.raw) {
			c.errors = append(c.errors, v.name)
		}
	}
	if len(c.errors) > 0 {
		return c.raw, types.StatusInvalid
	}
	return c.raw, types.StatusValid
}
