package relation

import "github.com/solatis/formrel/internal/types"

// FindActivationRelations returns the groups whose action affects enabled or
// visible state, in original order. Never returns nil.
func FindActivationRelations(groups []types.RelationGroup) []types.RelationGroup {
	out := make([]types.RelationGroup, 0, len(groups))
	for _, g := range groups {
		if g.Action.IsActivation() {
			out = append(out, g)
		}
	}
	return out
}

// FindRequiredRelation returns the first REQUIRED group.
func FindRequiredRelation(groups []types.RelationGroup) (types.RelationGroup, bool) {
	for _, g := range groups {
		if g.Action == types.ActionRequired {
			return g, true
		}
	}
	return types.RelationGroup{}, false
}
