// internal/relation/evaluate.go
package relation

import "github.com/solatis/formrel/internal/types"

/*
 * Relation group evaluation.
 *
 * Folds a group's conditions left to right into a single "triggered" verdict.
 * The accumulator starts false.
 *
 * Per condition:
 *   1. Resolve the target control. Unresolved -> accumulator = false.
 *   2. For index > 0, apply the short circuit BEFORE comparing:
 *        non-inverting action: AND with false -> false, OR with true -> true
 *        inverting action:     AND with true  -> true,  OR with false -> false
 *   3. Compare status (status mode) or value via the operator registry.
 *   4. Inverting actions (ENABLE, VISIBLE, VISIBLE_ENABLE) negate the result.
 *
 * Inversion lets "ENABLE when X" share the condition shape of "DISABLE when X":
 * the verdict always answers the negative question (disable? hide?).
 *
 * Connective absent: no short circuit applies and each resolved condition
 * overwrites the accumulator, so the last resolved condition decides.
 *
 * Evaluation reads the tree only. Calls with an unchanged tree return the
 * same verdict.
 */

// Step records how one condition contributed to a verdict.
type Step struct {
	Index          int    `json:"index"`
	TargetID       string `json:"target_id"`
	Resolved       bool   `json:"resolved"`
	ShortCircuited bool   `json:"short_circuited,omitempty"`
	StatusMode     bool   `json:"status_mode,omitempty"`
	Operator       string `json:"operator"`
	Raw            bool   `json:"raw"`       // comparison result before inversion
	Triggered      bool   `json:"triggered"` // accumulator after this step
}

// Verdict is the outcome of evaluating one relation group.
type Verdict struct {
	Action    types.ActionKind
	Triggered bool
	Steps     []Step
}

// IsActionTriggered evaluates group against tree.
func (e *Engine) IsActionTriggered(group types.RelationGroup, tree Node) bool {
	return e.Evaluate(group, tree).Triggered
}

// Evaluate folds the group's conditions and records every step.
func (e *Engine) Evaluate(group types.RelationGroup, tree Node) Verdict {
	verdict := Verdict{
		Action: group.Action,
		Steps:  make([]Step, 0, len(group.When)),
	}
	inverting := group.Action.InvertsConditions()
	triggered := false

	for i, cond := range group.When {
		step := Step{
			Index:      i,
			TargetID:   cond.TargetID,
			StatusMode: cond.StatusMode(),
			Operator:   operatorSymbol(cond.Operator),
		}

		control := e.resolver.Resolve(cond.TargetID, tree)
		if control == nil {
			triggered = false
			step.Triggered = triggered
			verdict.Steps = append(verdict.Steps, step)
			continue
		}
		step.Resolved = true

		if i > 0 {
			if value, ok := shortCircuit(group.Connective, inverting, triggered); ok {
				triggered = value
				step.ShortCircuited = true
				step.Triggered = triggered
				verdict.Steps = append(verdict.Steps, step)
				continue
			}
		}

		step.Raw = e.compare(cond, control)
		if inverting {
			triggered = !step.Raw
		} else {
			triggered = step.Raw
		}
		step.Triggered = triggered
		verdict.Steps = append(verdict.Steps, step)
	}

	verdict.Triggered = triggered
	return verdict
}

// shortCircuit returns the forced accumulator value when the connective
// already decides the fold.
func shortCircuit(conn types.Connective, inverting, triggered bool) (bool, bool) {
	if !inverting {
		switch {
		case conn == types.ConnectiveAnd && !triggered:
			return false, true
		case conn == types.ConnectiveOr && triggered:
			return true, true
		}
		return false, false
	}
	switch {
	case conn == types.ConnectiveAnd && triggered:
		return true, true
	case conn == types.ConnectiveOr && !triggered:
		return false, true
	}
	return false, false
}

// compare runs the condition's operator against the control's status or value.
func (e *Engine) compare(cond types.RelationCondition, control Node) bool {
	op := e.registry.Lookup(cond.Operator)
	if cond.StatusMode() {
		return op(string(control.Status()), string(*cond.Status))
	}
	return op(control.Value(), cond.Value)
}

func operatorSymbol(symbol string) string {
	if symbol == "" {
		return DefaultOperator
	}
	return symbol
}
