package formdef

import (
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/form"
	"github.com/solatis/formrel/internal/relation"
	"github.com/solatis/formrel/internal/types"
)

/*
 * Evaluation sessions.
 *
 * A session builds a fresh control tree for a document, binds its relations,
 * then applies values one path at a time in sorted order. The binder
 * re-evaluates after every change, so the report reflects the settled state
 * rather than a single pass over the final values.
 *
 * Trees are never shared: concurrent callers each get their own session.
 */

// Options configures Evaluate. Zero values select defaults.
type Options struct {
	Engine  *relation.Engine
	Logger  *zap.Logger
	Explain bool // include per-condition traces
}

// FieldReport is the settled state of one field.
type FieldReport struct {
	Path     string              `json:"path"`
	Kind     form.Kind           `json:"kind"`
	Disabled bool                `json:"disabled"`
	Hidden   bool                `json:"hidden"`
	Required bool                `json:"required"`
	Status   types.ControlStatus `json:"status"`
	Errors   []string            `json:"errors,omitempty"`
	Value    any                 `json:"value,omitempty"`
}

// Trace explains one relation group of one field.
type Trace struct {
	Field     string          `json:"field"`
	Action    string          `json:"action"`
	Triggered bool            `json:"triggered"`
	Steps     []relation.Step `json:"steps"`
}

// Report is the outcome of evaluating a document.
type Report struct {
	FormID string              `json:"form_id"`
	Status types.ControlStatus `json:"status"`
	Fields []FieldReport       `json:"fields"`
	Traces []Trace             `json:"traces,omitempty"`
}

// Field returns the report for path, or false when absent.
func (r Report) Field(path string) (FieldReport, bool) {
	for _, f := range r.Fields {
		if f.Path == path {
			return f, true
		}
	}
	return FieldReport{}, false
}

// Evaluate builds, binds and fills a form, then reports every field.
func Evaluate(doc *Document, values Values, opts Options) (Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := opts.Engine
	if engine == nil {
		engine = relation.NewEngine()
	}

	models, err := doc.Models()
	if err != nil {
		return Report{}, err
	}
	root, err := form.NewFormGroup(models)
	if err != nil {
		return Report{}, err
	}

	binder := form.NewBinder(engine, logger)
	defer binder.Close()
	if err := binder.Bind(models, root); err != nil {
		return Report{}, err
	}
	if err := values.Apply(root); err != nil {
		return Report{}, err
	}

	report := Report{FormID: doc.ID, Status: root.Status()}
	form.Walk(models, func(m *form.FieldModel) {
		c := m.Control()
		fr := FieldReport{
			Path:     c.Path(),
			Kind:     m.Kind,
			Disabled: m.Disabled || c.Disabled(),
			Hidden:   m.Hidden,
			Required: m.Required,
			Status:   c.Status(),
		}
		if leaf, ok := c.(*form.Control); ok {
			fr.Errors = leaf.Errors()
			fr.Value = leaf.Value()
		}
		report.Fields = append(report.Fields, fr)

		if opts.Explain {
			report.Traces = append(report.Traces, explain(engine, m)...)
		}
	})

	logger.Debug("form evaluated",
		zap.String("form_id", doc.ID),
		zap.Int("fields", len(report.Fields)),
		zap.String("status", string(report.Status)))

	return report, nil
}

func explain(engine *relation.Engine, m *form.FieldModel) []Trace {
	if len(m.Relations) == 0 {
		return nil
	}
	scope := m.Control().Parent()
	traces := make([]Trace, 0, len(m.Relations))
	for _, rg := range m.Relations {
		action := rg.Action.String()
		if rg.Action == types.ActionUnknown && rg.RawAction != "" {
			action = rg.RawAction
		}
		v := engine.Evaluate(rg, scope)
		traces = append(traces, Trace{
			Field:     m.Control().Path(),
			Action:    action,
			Triggered: v.Triggered,
			Steps:     v.Steps,
		})
	}
	return traces
}
