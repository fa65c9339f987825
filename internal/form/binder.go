// internal/form/binder.go
package form

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/relation"
	"github.com/solatis/formrel/internal/types"
)

/*
 * Relation binding.
 *
 * Connects each field model's relation groups to the live control tree.
 * A relation is evaluated against the group that contains the field, so
 * condition ids resolve among the field's siblings first, then upward.
 *
 * For every model with relations:
 *   1. Resolve related controls (self dependency fails the bind). When
 *      none resolve, the declared state is left alone
 *   2. For each activation group: apply the decision now, then re-apply on
 *      every value or status change of every related control
 *   3. Same for the first REQUIRED group
 *
 * Applying a decision:
 *   DISABLE / ENABLE               -> model.Disabled, control disable/enable
 *   HIDDEN / VISIBLE               -> model.Hidden
 *   HIDDEN_DISABLE / VISIBLE_ENABLE -> both of the above
 *   REQUIRED                       -> model.Required, required validator
 *
 * Applying a decision can change another control and trigger more
 * decisions. Cascades deeper than maxCascade are cut off and logged, which
 * stops relation cycles that never settle.
 */

const maxCascade = 64

// Binder owns the subscriptions created by Bind.
type Binder struct {
	engine *relation.Engine
	logger *zap.Logger

	unsubs []func()
	// subscriptions created for each array item
	items  map[AbstractControl][]func()
	depth  int
}

// NewBinder creates a binder. A nil engine selects relation defaults and a
// nil logger disables logging.
func NewBinder(engine *relation.Engine, logger *zap.Logger) *Binder {
	if engine == nil {
		engine = relation.NewEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Binder{engine: engine, logger: logger, items: make(map[AbstractControl][]func())}
}

// Bind wires the relations of models (recursively) against group, the
// control group built for them by NewFormGroup.
func (b *Binder) Bind(models []*FieldModel, group *Group) error {
	for _, m := range models {
		if len(m.Relations) > 0 {
			if err := b.bindModel(m, group); err != nil {
				return err
			}
		}

		switch c := m.control.(type) {
		case *Group:
			if err := b.Bind(m.Group, c); err != nil {
				return err
			}
		case *Array:
			for i, item := range m.Items {
				if err := b.BindItem(m, i, item); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// BindItem wires the relations of one array item, e.g. after AppendItem.
func (b *Binder) BindItem(array *FieldModel, index int, models []*FieldModel) error {
	a, ok := array.control.(*Array)
	if !ok {
		return fmt.Errorf("field %q is not a built array", array.ID)
	}
	item, ok := a.At(index).(*Group)
	if !ok {
		return fmt.Errorf("%w: %s.%d", types.ErrControlNotFound, array.ID, index)
	}

	start := len(b.unsubs)
	err := b.Bind(models, item)
	b.items[item] = append(b.items[item], b.unsubs[start:]...)
	b.unsubs = b.unsubs[:start]
	return err
}

// RemoveItem unsubscribes the relations bound for one array item, nested
// items included, then removes the item from the array model.
func (b *Binder) RemoveItem(array *FieldModel, index int) error {
	a, ok := array.control.(*Array)
	if !ok {
		return fmt.Errorf("field %q is not a built array", array.ID)
	}
	item := a.At(index)
	if item == nil {
		return fmt.Errorf("%w: %s.%d", types.ErrControlNotFound, array.ID, index)
	}
	for c, unsubs := range b.items {
		if !within(c, item) {
			continue
		}
		for _, unsub := range unsubs {
			unsub()
		}
		delete(b.items, c)
	}
	return array.RemoveItem(index)
}

// within reports whether c is root or below it.
func within(c, root AbstractControl) bool {
	for depth := 0; c != nil && depth <= types.MaxTreeDepth; depth++ {
		if c == root {
			return true
		}
		c = c.state().parent
	}
	return false
}

// Close drops every subscription created by this binder.
func (b *Binder) Close() {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
	for c, unsubs := range b.items {
		for _, unsub := range unsubs {
			unsub()
		}
		delete(b.items, c)
	}
}

func (b *Binder) bindModel(m *FieldModel, group *Group) error {
	if m.control == nil {
		return fmt.Errorf("%w: model %q has no control", types.ErrControlNotFound, m.ID)
	}

	model := types.Model{ID: m.ID, Relations: m.Relations}
	related, err := b.engine.RelatedControls(model, group)
	if err != nil {
		return fmt.Errorf("field %q: %w", m.control.Path(), err)
	}
	// Nothing resolved yet: the declared state stands
	if len(related) == 0 {
		b.logger.Debug("no related controls resolved", zap.String("field", m.control.Path()))
		return nil
	}

	for _, rg := range relation.FindActivationRelations(m.Relations) {
		b.watch(related, b.applier(m, rg, group))
	}
	if rg, ok := relation.FindRequiredRelation(m.Relations); ok {
		b.watch(related, b.applier(m, rg, group))
	}
	return nil
}

// watch applies once, then on every change of a related control.
func (b *Binder) watch(related []relation.Node, apply func()) {
	apply()
	for _, n := range related {
		c, ok := n.(AbstractControl)
		if !ok {
			continue
		}
		b.unsubs = append(b.unsubs,
			c.OnValueChange(func(any) { apply() }),
			c.OnStatusChange(func(types.ControlStatus) { apply() }),
		)
	}
}

func (b *Binder) applier(m *FieldModel, rg types.RelationGroup, group *Group) func() {
	return func() {
		if b.depth >= maxCascade {
			b.logger.Warn("relation cascade cut off",
				zap.String("field", m.control.Path()),
				zap.Stringer("action", rg.Action))
			return
		}
		b.depth++
		defer func() { b.depth-- }()

		var result bool
		switch rg.Action {
		case types.ActionDisable, types.ActionEnable:
			result = b.engine.ShouldDisable(rg, group)
			b.setDisabled(m, result)
		case types.ActionHidden, types.ActionVisible:
			result = b.engine.ShouldHide(rg, group)
			m.Hidden = result
		case types.ActionHiddenDisable, types.ActionVisibleEnable:
			result = b.engine.ShouldHideAndDisable(rg, group)
			m.Hidden = result
			b.setDisabled(m, result)
		case types.ActionRequired:
			result = b.engine.ShouldRequire(rg, group)
			m.Required = result
			if c, ok := m.control.(*Control); ok {
				c.SetRequired(result)
			}
		default:
			return
		}

		b.logger.Debug("relation applied",
			zap.String("field", m.control.Path()),
			zap.Stringer("action", rg.Action),
			zap.Bool("result", result))
	}
}

func (b *Binder) setDisabled(m *FieldModel, disabled bool) {
	m.Disabled = disabled
	if m.control.Disabled() == disabled {
		return
	}
	if disabled {
		m.control.Disable()
	} else {
		m.control.Enable()
	}
}
