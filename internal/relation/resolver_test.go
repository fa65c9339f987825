package relation

import (
	"errors"
	"testing"

	"github.com/solatis/formrel/internal/types"
)

// nestedTree builds root{country, address{street, city}, contacts{0{phone}}}.
func nestedTree() (root, address, contact *testNode) {
	address = group("address", leaf("street", "Main"), leaf("city", "Utrecht"))
	contact = group("0", leaf("phone", "123"))
	root = group("root", leaf("country", "NL"), address, group("contacts", contact))
	return root, address, contact
}

func TestAncestorOnly_Resolve(t *testing.T) {
	root, address, contact := nestedTree()
	r := AncestorOnly{}

	if got := r.Resolve("city", address); got == nil || got.Value() != "Utrecht" {
		t.Errorf("Resolve(city, address) = %v, want city control", got)
	}
	if got := r.Resolve("country", address); got == nil || got.Value() != "NL" {
		t.Errorf("Resolve(country, address) should find root child via parent")
	}
	if got := r.Resolve("street", contact); got != nil {
		t.Errorf("Resolve(street, contact) = %v, want nil (sibling subtree)", got)
	}
	if got := r.Resolve("street", root); got != nil {
		t.Errorf("Resolve(street, root) = %v, want nil (no descent)", got)
	}
	if got := r.Resolve("anything", nil); got != nil {
		t.Errorf("Resolve from nil = %v, want nil", got)
	}
}

func TestAncestorPlusDescent_Resolve(t *testing.T) {
	root, address, contact := nestedTree()
	r := AncestorPlusDescent{}

	if got := r.Resolve("street", contact); got == nil || got.Value() != "Main" {
		t.Errorf("Resolve(street, contact) should descend from root")
	}
	if got := r.Resolve("phone", root); got == nil || got.Value() != "123" {
		t.Errorf("Resolve(phone, root) should find nested array item control")
	}
	if got := r.Resolve("missing", address); got != nil {
		t.Errorf("Resolve(missing) = %v, want nil", got)
	}
	if got := r.Resolve("anything", nil); got != nil {
		t.Errorf("Resolve from nil = %v, want nil", got)
	}
}

func TestResolvers_AgreeWhenAncestorResolves(t *testing.T) {
	_, address, contact := nestedTree()

	for _, id := range []string{"city", "country", "contacts", "address"} {
		for _, from := range []Node{address, contact} {
			a := AncestorOnly{}.Resolve(id, from)
			if a == nil {
				continue
			}
			if d := (AncestorPlusDescent{}).Resolve(id, from); d != a {
				t.Errorf("Resolve(%q): descent returned a different control", id)
			}
		}
	}
}

func TestEngine_WithDescentResolver(t *testing.T) {
	_, _, contact := nestedTree()
	g := types.RelationGroup{Action: types.ActionDisable,
		When: []types.RelationCondition{cond("city", "Utrecht")}}

	if ShouldDisable(g, contact) {
		t.Errorf("default engine resolved a sibling subtree control")
	}
	e := NewEngine(WithResolver(AncestorPlusDescent{}))
	if !e.ShouldDisable(g, contact) {
		t.Errorf("descent engine ShouldDisable() = false, want true")
	}
}

func TestResolverByName(t *testing.T) {
	tests := []struct {
		name    string
		want    ControlResolver
		wantErr bool
	}{
		{"", AncestorOnly{}, false},
		{ResolverAncestor, AncestorOnly{}, false},
		{ResolverDescent, AncestorPlusDescent{}, false},
		{"sideways", nil, true},
	}

	for _, tt := range tests {
		got, err := ResolverByName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolverByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolverByName(%q) = %T, want %T", tt.name, got, tt.want)
		}
	}
}

func TestRelatedControls(t *testing.T) {
	tree := sampleTree("option-1", "option-1")
	model := types.Model{
		ID:        "testTextArea",
		Relations: []types.RelationGroup{rel1, rel2, rel6},
	}

	controls, err := NewEngine().RelatedControls(model, tree)
	if err != nil {
		t.Fatalf("RelatedControls() error = %v", err)
	}
	if len(controls) != 2 {
		t.Fatalf("len(controls) = %d, want 2 (deduplicated)", len(controls))
	}
	if controls[0] != tree.Get("testSelect") || controls[1] != tree.Get("testRadioGroup") {
		t.Errorf("controls not in first-reference order")
	}
}

func TestRelatedControls_SkipsUnresolved(t *testing.T) {
	tree := sampleTree("option-1", "option-1")
	model := types.Model{
		ID: "testTextArea",
		Relations: []types.RelationGroup{{Action: types.ActionDisable,
			When: []types.RelationCondition{cond("ghost", 1), cond("testSelect", "x")}}},
	}

	controls, err := NewEngine().RelatedControls(model, tree)
	if err != nil {
		t.Fatalf("RelatedControls() error = %v", err)
	}
	if len(controls) != 1 {
		t.Errorf("len(controls) = %d, want 1", len(controls))
	}
}

func TestRelatedControls_SelfDependency(t *testing.T) {
	tree := sampleTree("option-1", "option-1")
	model := types.Model{
		ID: "testTextArea",
		Relations: []types.RelationGroup{{Action: types.ActionDisable,
			When: []types.RelationCondition{cond("testSelect", "x"), cond("testTextArea", "test")}}},
	}

	_, err := NewEngine().RelatedControls(model, tree)
	if !errors.Is(err, types.ErrSelfDependency) {
		t.Fatalf("RelatedControls() error = %v, want ErrSelfDependency", err)
	}
	var sd *types.SelfDependencyError
	if !errors.As(err, &sd) || sd.ModelID != "testTextArea" {
		t.Errorf("error does not carry the model id: %v", err)
	}
}
