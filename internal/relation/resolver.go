// internal/relation/resolver.go
package relation

import (
	"fmt"

	"github.com/solatis/formrel/internal/types"
)

/*
 * Control resolution across a hierarchical control tree.
 *
 * A relation condition names another control by id. Resolution starts at the
 * node the relation was bound against (normally the group that owns the
 * field) and proceeds in one of two strategies:
 *
 *   - AncestorOnly: look up id among the direct children of the start node,
 *     then of each ancestor up to the root. Sibling subtrees are not entered.
 *   - AncestorPlusDescent: AncestorOnly first; on a miss, search the entire
 *     tree below the root in pre-order, so relations may target controls in
 *     nested groups and arrays anywhere in the form.
 *
 * AncestorOnly is the default. An id that resolves under AncestorOnly
 * resolves to the same control under AncestorPlusDescent.
 *
 * Walks are bounded by types.MaxTreeDepth so a Node implementation with a
 * parent cycle cannot hang evaluation.
 */

// Node is the capability set the engine needs from a control tree.
// Get and Parent must return an untyped nil when there is no result.
type Node interface {
	Get(id string) Node
	Parent() Node
	Value() any
	Status() types.ControlStatus
}

// Branch is implemented by nodes with children (groups and arrays).
type Branch interface {
	Node
	Children() []Node
}

// ControlResolver locates a control by id starting from a node.
type ControlResolver interface {
	Resolve(id string, from Node) Node
}

// Resolver strategy names accepted by ResolverByName.
const (
	ResolverAncestor = "ancestor"
	ResolverDescent  = "descent"
)

// ResolverByName returns the strategy registered under name.
func ResolverByName(name string) (ControlResolver, error) {
	switch name {
	case "", ResolverAncestor:
		return AncestorOnly{}, nil
	case ResolverDescent:
		return AncestorPlusDescent{}, nil
	default:
		return nil, fmt.Errorf("unknown resolver strategy %q (expected %s or %s)", name, ResolverAncestor, ResolverDescent)
	}
}

// AncestorOnly searches the start node and its ancestors' direct children.
type AncestorOnly struct{}

// Resolve implements ControlResolver.
func (AncestorOnly) Resolve(id string, from Node) Node {
	depth := 0
	for n := from; n != nil && depth <= types.MaxTreeDepth; n = n.Parent() {
		if c := n.Get(id); c != nil {
			return c
		}
		depth++
	}
	return nil
}

// AncestorPlusDescent extends AncestorOnly with a full search from the root.
type AncestorPlusDescent struct{}

// Resolve implements ControlResolver.
func (AncestorPlusDescent) Resolve(id string, from Node) Node {
	if c := (AncestorOnly{}).Resolve(id, from); c != nil {
		return c
	}
	if from == nil {
		return nil
	}
	return descend(id, rootOf(from), 0)
}

// rootOf returns the topmost ancestor of n.
func rootOf(n Node) Node {
	root := n
	for depth := 0; depth < types.MaxTreeDepth; depth++ {
		p := root.Parent()
		if p == nil {
			break
		}
		root = p
	}
	return root
}

// descend performs a pre-order search for id below n.
func descend(id string, n Node, depth int) Node {
	if depth > types.MaxTreeDepth {
		return nil
	}
	branch, ok := n.(Branch)
	if !ok {
		return nil
	}
	if c := branch.Get(id); c != nil {
		return c
	}
	for _, child := range branch.Children() {
		if c := descend(id, child, depth+1); c != nil {
			return c
		}
	}
	return nil
}

// RelatedControls returns every control referenced by the model's relations,
// in first-reference order and without duplicates. Unresolvable targets are
// skipped. Fails with *types.SelfDependencyError if a condition targets the
// model itself.
func (e *Engine) RelatedControls(model types.Model, tree Node) ([]Node, error) {
	var controls []Node
	seen := make(map[Node]struct{})

	for _, group := range model.Relations {
		for _, cond := range group.When {
			if cond.TargetID == model.ID {
				return nil, &types.SelfDependencyError{ModelID: model.ID}
			}
			control := e.resolver.Resolve(cond.TargetID, tree)
			if control == nil {
				continue
			}
			if _, dup := seen[control]; dup {
				continue
			}
			seen[control] = struct{}{}
			controls = append(controls, control)
		}
	}

	return controls, nil
}
