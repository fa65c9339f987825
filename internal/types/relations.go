// internal/types/relations.go
package types

/*
 * Domain types for relation evaluation.
 *
 * Provides Model, RelationGroup, RelationCondition and the closed ActionKind
 * and Connective enums used by internal/relation. Declarative RelationDef and
 * ConditionDef mirror the document format and are compiled into the typed
 * forms by relation.Compile.
 *
 * Key types:
 *   - Model: a field model owning an ordered list of relation groups
 *   - RelationGroup: action + connective + ordered conditions
 *   - RelationCondition: one atomic test against another control
 *   - ActionKind: DISABLE/ENABLE/HIDDEN/VISIBLE/HIDDEN_DISABLE/VISIBLE_ENABLE/REQUIRED
 *
 * Polarity: ENABLE, VISIBLE, VISIBLE_ENABLE and REQUIRED describe affirmative
 * states. Only the first three invert their conditions during evaluation;
 * REQUIRED conditions state when the validator applies and fold as-is.
 */

// ActionKind is the effect a relation group has on its owning field.
type ActionKind int

const (
	ActionUnknown ActionKind = iota // malformed action name
	ActionDisable
	ActionEnable
	ActionHidden
	ActionVisible
	ActionHiddenDisable
	ActionVisibleEnable
	ActionRequired
)

var actionNames = map[ActionKind]string{
	ActionDisable:       "DISABLE",
	ActionEnable:        "ENABLE",
	ActionHidden:        "HIDDEN",
	ActionVisible:       "VISIBLE",
	ActionHiddenDisable: "HIDDEN_DISABLE",
	ActionVisibleEnable: "VISIBLE_ENABLE",
	ActionRequired:      "REQUIRED",
}

// ParseActionKind maps a document action name to its ActionKind.
// Unknown names return ActionUnknown and false; they are tagged, not rejected.
func ParseActionKind(s string) (ActionKind, bool) {
	for kind, name := range actionNames {
		if name == s {
			return kind, true
		}
	}
	return ActionUnknown, false
}

func (a ActionKind) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsActivation reports whether the action affects enabled or visible state.
func (a ActionKind) IsActivation() bool {
	switch a {
	case ActionDisable, ActionEnable, ActionHidden, ActionVisible, ActionHiddenDisable, ActionVisibleEnable:
		return true
	default:
		return false
	}
}

// Polarity classifies an action as affirmative or negating.
type Polarity int

const (
	PolarityNegative Polarity = iota
	PolarityPositive
)

// Polarity returns PolarityPositive for ENABLE, VISIBLE, VISIBLE_ENABLE and REQUIRED.
func (a ActionKind) Polarity() Polarity {
	switch a {
	case ActionEnable, ActionVisible, ActionVisibleEnable, ActionRequired:
		return PolarityPositive
	default:
		return PolarityNegative
	}
}

// InvertsConditions reports whether the evaluator negates per-condition results.
// ENABLE/VISIBLE/VISIBLE_ENABLE share condition shape with their opposites, so
// the verdict answers "disable?"/"hide?" for both members of the pair.
func (a ActionKind) InvertsConditions() bool {
	switch a {
	case ActionEnable, ActionVisible, ActionVisibleEnable:
		return true
	default:
		return false
	}
}

// Connective joins the conditions of one relation group.
type Connective int

const (
	ConnectiveNone Connective = iota // absent in the document
	ConnectiveAnd
	ConnectiveOr
)

// ParseConnective converts "AND"/"OR"/"" to a Connective.
func ParseConnective(s string) (Connective, error) {
	switch s {
	case "":
		return ConnectiveNone, nil
	case "AND":
		return ConnectiveAnd, nil
	case "OR":
		return ConnectiveOr, nil
	default:
		return ConnectiveNone, &InvalidConnectiveError{Value: s}
	}
}

func (c Connective) String() string {
	switch c {
	case ConnectiveAnd:
		return "AND"
	case ConnectiveOr:
		return "OR"
	default:
		return ""
	}
}

// RelationCondition is one atomic test against another control.
// Status mode applies when Value is nil and Status is set.
type RelationCondition struct {
	TargetID string         // id (or dotted path) of the referenced control
	Operator string         // registry symbol; empty selects "==="
	Value    any            // comparison value, nil is a literal null
	Status   *ControlStatus // comparison status, nil when absent
}

// StatusMode reports whether the condition compares control status.
func (c RelationCondition) StatusMode() bool {
	return c.Value == nil && c.Status != nil
}

// RelationGroup conditions an action on the state of other controls.
type RelationGroup struct {
	Action     ActionKind
	Connective Connective
	When       []RelationCondition // order is significant
	RawAction  string              // document name, kept for diagnostics when Action is unknown
}

// Model is the part of a field model the relation engine reads.
type Model struct {
	ID        string
	Relations []RelationGroup
}

// ConditionDef is the declarative form of RelationCondition.
type ConditionDef struct {
	ID       string  `json:"id" yaml:"id"`
	Operator string  `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    any     `json:"value,omitempty" yaml:"value,omitempty"`
	Status   *string `json:"status,omitempty" yaml:"status,omitempty"`
}

// RelationDef is the declarative form of RelationGroup.
type RelationDef struct {
	Action     string         `json:"action" yaml:"action"`
	Connective string         `json:"connective,omitempty" yaml:"connective,omitempty"`
	When       []ConditionDef `json:"when" yaml:"when"`
}
