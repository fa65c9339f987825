// internal/relation/compile.go
package relation

import (
	"fmt"

	"github.com/solatis/formrel/internal/types"
)

/*
 * Relation compilation and validation.
 *
 * Compiles declarative types.RelationDef into typed types.RelationGroup so
 * malformed configuration surfaces when a form is loaded rather than on every
 * value change.
 *
 * Compilation workflow:
 *   1. Enforce MaxRelationGroups / MaxConditionsPerGroup
 *   2. Parse action into the closed ActionKind set (unknown -> ActionUnknown)
 *   3. Parse connective ("" -> none, anything but AND/OR -> error)
 *   4. Validate each condition: target id present, status name known
 *
 * Unknown actions are tagged rather than rejected: every decision function
 * returns false for them, and the original name is kept in RawAction.
 *
 * Conditions are never reordered: the fold result depends on order when the
 * connective is absent, and short circuits skip later conditions.
 */

// Compile validates and converts relation definitions for one model.
func Compile(defs []types.RelationDef) ([]types.RelationGroup, error) {
	if len(defs) > types.MaxRelationGroups {
		return nil, types.ErrTooManyRelations
	}

	groups := make([]types.RelationGroup, 0, len(defs))
	for i, def := range defs {
		group, err := compileGroup(def)
		if err != nil {
			return nil, fmt.Errorf("relation %d: %w", i, err)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// compileGroup validates one relation definition.
func compileGroup(def types.RelationDef) (types.RelationGroup, error) {
	if len(def.When) == 0 {
		return types.RelationGroup{}, types.ErrEmptyRelation
	}
	if len(def.When) > types.MaxConditionsPerGroup {
		return types.RelationGroup{}, types.ErrTooManyConditions
	}

	action, _ := types.ParseActionKind(def.Action)

	conn, err := types.ParseConnective(def.Connective)
	if err != nil {
		return types.RelationGroup{}, err
	}

	when := make([]types.RelationCondition, 0, len(def.When))
	for i, cd := range def.When {
		cond, err := compileCondition(cd)
		if err != nil {
			return types.RelationGroup{}, fmt.Errorf("condition %d: %w", i, err)
		}
		when = append(when, cond)
	}

	return types.RelationGroup{
		Action:     action,
		Connective: conn,
		When:       when,
		RawAction:  def.Action,
	}, nil
}

// compileCondition validates target id and status name.
func compileCondition(cd types.ConditionDef) (types.RelationCondition, error) {
	if cd.ID == "" {
		return types.RelationCondition{}, types.ErrMissingTargetID
	}

	cond := types.RelationCondition{
		TargetID: cd.ID,
		Operator: cd.Operator,
		Value:    cd.Value,
	}
	if cd.Status != nil {
		st, err := types.ParseControlStatus(*cd.Status)
		if err != nil {
			return types.RelationCondition{}, err
		}
		cond.Status = &st
	}
	return cond, nil
}
