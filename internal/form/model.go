package form

import (
	"fmt"

	"github.com/solatis/formrel/internal/types"
)

// Kind is the widget kind of a field model.
type Kind string

const (
	KindInput    Kind = "input"
	KindTextArea Kind = "textarea"
	KindSelect   Kind = "select"
	KindRadio    Kind = "radio"
	KindCheckbox Kind = "checkbox"
	KindSwitch   Kind = "switch"
	KindDate     Kind = "date"
	KindGroup    Kind = "group"
	KindArray    Kind = "array"
)

// IsBranch reports whether the kind builds a Group or Array.
func (k Kind) IsBranch() bool { return k == KindGroup || k == KindArray }

// FieldModel is the runtime model of one field. Disabled, Hidden and
// Required are the observable state that relations drive.
type FieldModel struct {
	ID         string
	Kind       Kind
	Label      string
	Value      any
	Validators ValidatorSet
	Relations  []types.RelationGroup

	Disabled bool
	Hidden   bool
	Required bool

	// Group lists the children of a KindGroup model.
	Group []*FieldModel
	// Template and Count describe a KindArray model; Items holds the
	// per-item copies of Template.
	Template []*FieldModel
	Count    int
	Items    [][]*FieldModel

	control AbstractControl
}

// Control returns the control built for m, or nil before NewFormGroup.
func (m *FieldModel) Control() AbstractControl { return m.control }

// Clone deep-copies the declaration of m. The copy has no control and no
// array items; NewFormGroup builds both.
func (m *FieldModel) Clone() *FieldModel {
	c := *m
	c.control = nil
	c.Relations = append([]types.RelationGroup(nil), m.Relations...)
	c.Group = cloneModels(m.Group)
	c.Template = cloneModels(m.Template)
	c.Items = nil
	return &c
}

func cloneModels(models []*FieldModel) []*FieldModel {
	if models == nil {
		return nil
	}
	out := make([]*FieldModel, len(models))
	for i, m := range models {
		out[i] = m.Clone()
	}
	return out
}

// NewFormGroup builds the root group for models and links each model to
// its control. Array models get Count items built from Template.
func NewFormGroup(models []*FieldModel) (*Group, error) {
	root := NewGroup("")
	if err := addModels(root, models, 0); err != nil {
		return nil, err
	}
	return root, nil
}

func addModels(g *Group, models []*FieldModel, depth int) error {
	if depth > types.MaxTreeDepth {
		return fmt.Errorf("%w: nesting deeper than %d", types.ErrPathTooDeep, types.MaxTreeDepth)
	}
	for _, m := range models {
		c, err := buildControl(m, depth)
		if err != nil {
			return fmt.Errorf("field %q: %w", m.ID, err)
		}
		if err := g.Add(c); err != nil {
			return err
		}
		if m.Disabled {
			c.Disable()
		}
	}
	return nil
}

func buildControl(m *FieldModel, depth int) (AbstractControl, error) {
	if m.ID == "" {
		return nil, types.ErrMissingTargetID
	}

	switch m.Kind {
	case KindGroup:
		g := NewGroup(m.ID)
		if err := addModels(g, m.Group, depth+1); err != nil {
			return nil, err
		}
		m.control = g
		return g, nil

	case KindArray:
		a := NewArray(m.ID)
		m.control = a
		m.Items = nil
		for i := 0; i < m.Count; i++ {
			if _, err := m.AppendItem(); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
		return a, nil

	default:
		vs := m.Validators
		vs.Required = vs.Required || m.Required
		m.Required = vs.Required
		c, err := NewControl(m.ID, m.Value, vs)
		if err != nil {
			return nil, err
		}
		m.control = c
		return c, nil
	}
}

// AppendItem adds one item built from Template to an array model and
// returns the item's models. The caller binds relations for the new item.
func (m *FieldModel) AppendItem() ([]*FieldModel, error) {
	a, ok := m.control.(*Array)
	if !ok {
		return nil, fmt.Errorf("field %q is not a built array", m.ID)
	}
	models := cloneModels(m.Template)
	item := NewGroup("")
	if err := addModels(item, models, 1); err != nil {
		return nil, err
	}
	a.Append(item)
	m.Items = append(m.Items, models)
	return models, nil
}

// RemoveItem removes item index from an array model and its control.
// Relations bound for the item should be dropped first with
// Binder.RemoveItem, which calls this.
func (m *FieldModel) RemoveItem(index int) error {
	a, ok := m.control.(*Array)
	if !ok {
		return fmt.Errorf("field %q is not a built array", m.ID)
	}
	if err := a.RemoveAt(index); err != nil {
		return err
	}
	m.Items = append(m.Items[:index:index], m.Items[index+1:]...)
	return nil
}

// Walk visits every model below models depth-first, array items included.
func Walk(models []*FieldModel, fn func(m *FieldModel)) {
	for _, m := range models {
		fn(m)
		Walk(m.Group, fn)
		for _, item := range m.Items {
			Walk(item, fn)
		}
	}
}
