package relation

import "github.com/solatis/formrel/internal/types"

// ShouldDisable reports whether a DISABLE/ENABLE group disables its field.
// Groups with any other action return false.
func (e *Engine) ShouldDisable(group types.RelationGroup, tree Node) bool {
	switch group.Action {
	case types.ActionDisable, types.ActionEnable:
		return e.IsActionTriggered(group, tree)
	default:
		return false
	}
}

// ShouldHide reports whether a HIDDEN/VISIBLE group hides its field.
func (e *Engine) ShouldHide(group types.RelationGroup, tree Node) bool {
	switch group.Action {
	case types.ActionHidden, types.ActionVisible:
		return e.IsActionTriggered(group, tree)
	default:
		return false
	}
}

// ShouldHideAndDisable reports whether a HIDDEN_DISABLE/VISIBLE_ENABLE group
// hides and disables its field.
func (e *Engine) ShouldHideAndDisable(group types.RelationGroup, tree Node) bool {
	switch group.Action {
	case types.ActionHiddenDisable, types.ActionVisibleEnable:
		return e.IsActionTriggered(group, tree)
	default:
		return false
	}
}

// ShouldRequire reports whether a REQUIRED group makes its field required.
func (e *Engine) ShouldRequire(group types.RelationGroup, tree Node) bool {
	if group.Action != types.ActionRequired {
		return false
	}
	return e.IsActionTriggered(group, tree)
}

// ShouldDisable evaluates with the default engine.
func ShouldDisable(group types.RelationGroup, tree Node) bool {
	return defaultEngine.ShouldDisable(group, tree)
}

// ShouldHide evaluates with the default engine.
func ShouldHide(group types.RelationGroup, tree Node) bool {
	return defaultEngine.ShouldHide(group, tree)
}

// ShouldHideAndDisable evaluates with the default engine.
func ShouldHideAndDisable(group types.RelationGroup, tree Node) bool {
	return defaultEngine.ShouldHideAndDisable(group, tree)
}

// ShouldRequire evaluates with the default engine.
func ShouldRequire(group types.RelationGroup, tree Node) bool {
	return defaultEngine.ShouldRequire(group, tree)
}

// Decision is the combined effect of all relation groups of one model.
// The Has* flags tell whether any group governs the corresponding state.
type Decision struct {
	Disabled    bool
	Hidden      bool
	Required    bool
	HasDisabled bool
	HasHidden   bool
	HasRequired bool
}

// Decide applies every group of model in order, the way a bound field does
// on initial binding: later activation groups overwrite earlier ones and the
// first REQUIRED group decides Required.
func (e *Engine) Decide(model types.Model, tree Node) Decision {
	var d Decision

	for _, group := range FindActivationRelations(model.Relations) {
		switch group.Action {
		case types.ActionDisable, types.ActionEnable:
			d.Disabled = e.ShouldDisable(group, tree)
			d.HasDisabled = true
		case types.ActionHidden, types.ActionVisible:
			d.Hidden = e.ShouldHide(group, tree)
			d.HasHidden = true
		case types.ActionHiddenDisable, types.ActionVisibleEnable:
			v := e.ShouldHideAndDisable(group, tree)
			d.Disabled, d.Hidden = v, v
			d.HasDisabled, d.HasHidden = true, true
		}
	}

	if group, ok := FindRequiredRelation(model.Relations); ok {
		d.Required = e.ShouldRequire(group, tree)
		d.HasRequired = true
	}

	return d
}
