// internal/relation/evaluate_test.go
package relation

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/formrel/internal/types"
)

// Groups from the select/radio relation suite. Both controls hold "option-1".
var (
	rel1 = types.RelationGroup{Action: types.ActionDisable, Connective: types.ConnectiveOr,
		When: []types.RelationCondition{cond("testSelect", "option-2"), cond("testRadioGroup", "option-3")}}
	rel2 = types.RelationGroup{Action: types.ActionEnable, Connective: types.ConnectiveAnd,
		When: []types.RelationCondition{cond("testSelect", "option-3"), cond("testRadioGroup", "option-2")}}
	rel3 = types.RelationGroup{Action: types.ActionDisable, Connective: types.ConnectiveAnd,
		When: []types.RelationCondition{cond("testSelect", "option-2"), cond("testRadioGroup", "option-3")}}
	rel4 = types.RelationGroup{Action: types.ActionEnable, Connective: types.ConnectiveOr,
		When: []types.RelationCondition{cond("testSelect", "option-1"), cond("testRadioGroup", "option-2")}}
	rel5 = types.RelationGroup{Action: types.ActionDisable, Connective: types.ConnectiveOr,
		When: []types.RelationCondition{cond("testSelect", "option-1"), cond("testRadioGroup", "option-3")}}
	rel6 = types.RelationGroup{Action: types.ActionRequired, Connective: types.ConnectiveOr,
		When: []types.RelationCondition{cond("testSelect", "option-2"), cond("testRadioGroup", "option-3")}}
	rel7 = types.RelationGroup{Action: types.ActionRequired, Connective: types.ConnectiveAnd,
		When: []types.RelationCondition{cond("testSelect", "option-2"), cond("testRadioGroup", "option-3")}}
	rel8 = types.RelationGroup{Action: types.ActionRequired, Connective: types.ConnectiveOr,
		When: []types.RelationCondition{cond("testSelect", "option-1"), cond("testRadioGroup", "option-3")}}
)

func TestShouldDisable_RelationSuite(t *testing.T) {
	tree := sampleTree("option-1", "option-1")

	tests := []struct {
		name  string
		group types.RelationGroup
		want  bool
	}{
		{"DISABLE OR neither matches", rel1, false},
		{"ENABLE AND neither matches", rel2, true},
		{"DISABLE AND neither matches", rel3, false},
		{"ENABLE OR first matches", rel4, false},
		{"DISABLE OR first matches", rel5, true},
		{"unknown action", types.RelationGroup{Action: types.ActionUnknown, RawAction: "TEST",
			When: []types.RelationCondition{cond("testTextArea", "test")}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldDisable(tt.group, tree); got != tt.want {
				t.Errorf("ShouldDisable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRequire_RelationSuite(t *testing.T) {
	tree := sampleTree("option-1", "option-1")

	if ShouldRequire(rel6, tree) {
		t.Errorf("ShouldRequire(rel6) = true, want false")
	}
	if ShouldRequire(rel7, tree) {
		t.Errorf("ShouldRequire(rel7) = true, want false")
	}
	if !ShouldRequire(rel8, tree) {
		t.Errorf("ShouldRequire(rel8) = false, want true")
	}
	unknown := types.RelationGroup{Action: types.ActionUnknown,
		When: []types.RelationCondition{cond("testTextArea", "test")}}
	if ShouldRequire(unknown, tree) {
		t.Errorf("ShouldRequire(unknown) = true, want false")
	}
}

func TestShouldDisable_EqualValueScenario(t *testing.T) {
	a := leaf("A", "x")
	tree := group("root", a, leaf("target", nil))
	g := types.RelationGroup{
		Action:     types.ActionDisable,
		Connective: types.ConnectiveOr,
		When:       []types.RelationCondition{{TargetID: "A", Operator: "===", Value: "x"}},
	}

	if !ShouldDisable(g, tree) {
		t.Fatalf("ShouldDisable() = false, want true while A=x")
	}

	a.value = "y"
	if ShouldDisable(g, tree) {
		t.Errorf("ShouldDisable() = true, want false after A=y")
	}
}

func TestShouldRequire_AndOfTwoScenario(t *testing.T) {
	b := leaf("B", "opt-1")
	c := leaf("C", "opt-1")
	tree := group("root", b, c)
	g := types.RelationGroup{
		Action:     types.ActionRequired,
		Connective: types.ConnectiveAnd,
		When:       []types.RelationCondition{cond("B", "opt-2"), cond("C", "opt-3")},
	}

	if ShouldRequire(g, tree) {
		t.Fatalf("ShouldRequire() = true, want false with B=opt-1 C=opt-1")
	}

	b.value, c.value = "opt-2", "opt-3"
	if !ShouldRequire(g, tree) {
		t.Errorf("ShouldRequire() = false, want true with B=opt-2 C=opt-3")
	}

	b.value = "opt-1"
	if ShouldRequire(g, tree) {
		t.Errorf("ShouldRequire() = true, want false with only C matching")
	}
}

func TestShouldHide_VisiblePolarity(t *testing.T) {
	toggle := leaf("dynamicStuff", true)
	tree := group("root", toggle, leaf("phone", ""))
	visible := types.RelationGroup{Action: types.ActionVisible,
		When: []types.RelationCondition{{TargetID: "dynamicStuff", Operator: "===", Value: true}}}
	hidden := types.RelationGroup{Action: types.ActionHidden,
		When: []types.RelationCondition{{TargetID: "dynamicStuff", Operator: "===", Value: true}}}

	if ShouldHide(visible, tree) {
		t.Errorf("VISIBLE when true: ShouldHide() = true, want false")
	}
	if !ShouldHide(hidden, tree) {
		t.Errorf("HIDDEN when true: ShouldHide() = false, want true")
	}

	toggle.value = false
	if !ShouldHide(visible, tree) {
		t.Errorf("VISIBLE when true, value false: ShouldHide() = false, want true")
	}
	if ShouldHide(hidden, tree) {
		t.Errorf("HIDDEN when true, value false: ShouldHide() = true, want false")
	}
}

func TestShouldHideAndDisable(t *testing.T) {
	tree := group("root", leaf("mode", "advanced"))
	hd := types.RelationGroup{Action: types.ActionHiddenDisable,
		When: []types.RelationCondition{cond("mode", "basic")}}
	ve := types.RelationGroup{Action: types.ActionVisibleEnable,
		When: []types.RelationCondition{cond("mode", "basic")}}

	if ShouldHideAndDisable(hd, tree) {
		t.Errorf("HIDDEN_DISABLE(mode=basic) on advanced = true, want false")
	}
	if !ShouldHideAndDisable(ve, tree) {
		t.Errorf("VISIBLE_ENABLE(mode=basic) on advanced = false, want true")
	}
	if ShouldHide(hd, tree) || ShouldDisable(ve, tree) || ShouldRequire(hd, tree) {
		t.Errorf("facade accepted a group outside its action pair")
	}
}

func TestEvaluate_UnresolvedContributesFalse(t *testing.T) {
	tree := group("root", leaf("A", "x"))

	g := types.RelationGroup{Action: types.ActionDisable, Connective: types.ConnectiveAnd,
		When: []types.RelationCondition{cond("A", "x"), cond("missing", "x")}}

	v := NewEngine().Evaluate(g, tree)
	if v.Triggered {
		t.Errorf("Triggered = true, want false (unresolved last condition resets the fold)")
	}
	if len(v.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(v.Steps))
	}
	if v.Steps[1].Resolved {
		t.Errorf("Steps[1].Resolved = true, want false")
	}

	enable := types.RelationGroup{Action: types.ActionEnable,
		When: []types.RelationCondition{cond("missing", "x")}}
	if ShouldDisable(enable, tree) {
		t.Errorf("ENABLE on unresolved target = true, want false regardless of polarity")
	}
}

func TestEvaluate_ShortCircuitBeforeCompare(t *testing.T) {
	tree := group("root", leaf("A", "x"), leaf("B", "y"))

	calls := 0
	counting := DefaultRegistry().With("count", func(a, b any) bool {
		calls++
		return a == b
	})
	e := NewEngine(WithRegistry(counting))

	g := types.RelationGroup{Action: types.ActionDisable, Connective: types.ConnectiveAnd,
		When: []types.RelationCondition{
			{TargetID: "A", Operator: "count", Value: "nope"},
			{TargetID: "B", Operator: "count", Value: "y"},
		}}

	v := e.Evaluate(g, tree)
	if v.Triggered {
		t.Errorf("Triggered = true, want false")
	}
	if calls != 1 {
		t.Errorf("operator calls = %d, want 1 (second condition short-circuited)", calls)
	}
	if !v.Steps[1].ShortCircuited {
		t.Errorf("Steps[1].ShortCircuited = false, want true")
	}
}

func TestEvaluate_ConnectiveAbsentLastWins(t *testing.T) {
	tree := group("root", leaf("A", "x"), leaf("B", "y"))

	g := types.RelationGroup{Action: types.ActionDisable,
		When: []types.RelationCondition{cond("A", "x"), cond("B", "nope")}}
	if NewEngine().IsActionTriggered(g, tree) {
		t.Errorf("IsActionTriggered() = true, want false (last condition decides)")
	}

	g.When = []types.RelationCondition{cond("A", "nope"), cond("B", "y")}
	if !NewEngine().IsActionTriggered(g, tree) {
		t.Errorf("IsActionTriggered() = false, want true (last condition decides)")
	}
}

func TestEvaluate_StatusMode(t *testing.T) {
	email := leaf("email", "not-an-email")
	email.status = types.StatusInvalid
	tree := group("root", email)

	g := types.RelationGroup{Action: types.ActionDisable,
		When: []types.RelationCondition{statusCond("email", types.StatusInvalid)}}

	v := NewEngine().Evaluate(g, tree)
	if !v.Triggered {
		t.Errorf("Triggered = false, want true for INVALID status")
	}
	if !v.Steps[0].StatusMode {
		t.Errorf("Steps[0].StatusMode = false, want true")
	}

	email.status = types.StatusValid
	if ShouldDisable(g, tree) {
		t.Errorf("ShouldDisable() = true, want false once VALID")
	}
}

// A non-nil value always selects value mode, so a configuration cannot
// compare against literal null and a status at the same time.
func TestEvaluate_NullValueStatusQuirk(t *testing.T) {
	email := leaf("email", nil)
	email.status = types.StatusValid
	tree := group("root", email)
	invalid := types.StatusInvalid

	nullWithStatus := types.RelationGroup{Action: types.ActionDisable,
		When: []types.RelationCondition{{TargetID: "email", Value: nil, Status: &invalid}}}
	if ShouldDisable(nullWithStatus, tree) {
		t.Errorf("nil value + status compared value instead of status")
	}

	valueWithStatus := types.RelationGroup{Action: types.ActionDisable,
		When: []types.RelationCondition{{TargetID: "email", Value: "x", Status: &invalid}}}
	email.value = "x"
	email.status = types.StatusValid
	if !ShouldDisable(valueWithStatus, tree) {
		t.Errorf("non-nil value + status should compare value and match")
	}

	nullOnly := types.RelationGroup{Action: types.ActionDisable,
		When: []types.RelationCondition{{TargetID: "email", Value: nil}}}
	email.value = nil
	if !ShouldDisable(nullOnly, tree) {
		t.Errorf("nil value without status should compare value against null")
	}
}

func TestEvaluate_NestedGroupAncestorLookup(t *testing.T) {
	street := leaf("streetName", "")
	address := group("address", street)
	tree := group("root", leaf("country", "NL"), address)

	g := types.RelationGroup{Action: types.ActionHidden,
		When: []types.RelationCondition{cond("country", "US")}}

	if ShouldHide(g, address) {
		t.Errorf("ShouldHide() = true, want false (country resolved via parent)")
	}
	tree.children[0].value = "US"
	if !ShouldHide(g, address) {
		t.Errorf("ShouldHide() = false, want true after country=US")
	}
}

// Property-based test: repeated evaluation is idempotent
func TestEvaluate_PropertyIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	actions := []types.ActionKind{
		types.ActionDisable, types.ActionEnable, types.ActionHidden, types.ActionVisible,
		types.ActionHiddenDisable, types.ActionVisibleEnable, types.ActionRequired,
	}

	properties.Property("decision functions are stable across calls", prop.ForAll(
		func(actionIdx int, connIdx int, aVal, bVal, want1, want2 string) bool {
			tree := group("root", leaf("a", aVal), leaf("b", bVal))
			g := types.RelationGroup{
				Action:     actions[actionIdx],
				Connective: types.Connective(connIdx),
				When:       []types.RelationCondition{cond("a", want1), cond("b", want2)},
			}
			first := [4]bool{ShouldDisable(g, tree), ShouldHide(g, tree), ShouldHideAndDisable(g, tree), ShouldRequire(g, tree)}
			for i := 0; i < 3; i++ {
				again := [4]bool{ShouldDisable(g, tree), ShouldHide(g, tree), ShouldHideAndDisable(g, tree), ShouldRequire(g, tree)}
				if again != first {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(actions)-1),
		gen.IntRange(0, 2),
		gen.OneConstOf("p", "q"),
		gen.OneConstOf("p", "q"),
		gen.OneConstOf("p", "q"),
		gen.OneConstOf("p", "q"),
	))

	properties.TestingRun(t)
}

// Property-based test: inverting actions mirror their opposites for one condition
func TestEvaluate_PropertyPolarityMirror(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ENABLE(X) == !DISABLE(X) for a resolved single condition", prop.ForAll(
		func(value, want string) bool {
			tree := group("root", leaf("a", value))
			when := []types.RelationCondition{cond("a", want)}
			disable := types.RelationGroup{Action: types.ActionDisable, When: when}
			enable := types.RelationGroup{Action: types.ActionEnable, When: when}
			return ShouldDisable(enable, tree) == !ShouldDisable(disable, tree)
		},
		gen.OneConstOf("x", "y", "z"),
		gen.OneConstOf("x", "y", "z"),
	))

	properties.TestingRun(t)
}
