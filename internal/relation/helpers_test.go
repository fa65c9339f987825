package relation

import "github.com/solatis/formrel/internal/types"

// testNode is a minimal control tree for engine tests.
type testNode struct {
	id       string
	value    any
	status   types.ControlStatus
	parent   *testNode
	children []*testNode
}

func leaf(id string, value any) *testNode {
	return &testNode{id: id, value: value, status: types.StatusValid}
}

func group(id string, children ...*testNode) *testNode {
	g := &testNode{id: id, status: types.StatusValid}
	for _, c := range children {
		c.parent = g
		g.children = append(g.children, c)
	}
	return g
}

func (n *testNode) Get(id string) Node {
	for _, c := range n.children {
		if c.id == id {
			return c
		}
	}
	return nil
}

func (n *testNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *testNode) Value() any                  { return n.value }
func (n *testNode) Status() types.ControlStatus { return n.status }

func (n *testNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func cond(id string, value any) types.RelationCondition {
	return types.RelationCondition{TargetID: id, Value: value}
}

func statusCond(id string, st types.ControlStatus) types.RelationCondition {
	return types.RelationCondition{TargetID: id, Status: &st}
}

// sampleTree mirrors the select/radio/textarea form used by the relation suite.
func sampleTree(selectValue, radioValue string) *testNode {
	return group("root",
		leaf("testSelect", selectValue),
		leaf("testRadioGroup", radioValue),
		leaf("testTextArea", nil),
	)
}
