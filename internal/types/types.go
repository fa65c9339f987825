// Package types provides domain models shared across formrel components.
//
// Zero-dependency design: relations.go and errors.go use only the standard
// library so the relation engine can be embedded without pulling in the
// service stack. ID utilities in ids.go import uuid but are isolated.
//
// Declarative shapes (RelationDef, ConditionDef) carry the string form found
// in definition documents; internal/relation compiles them into the typed
// RelationGroup consumed by the evaluator.
package types

import "fmt"

// ControlStatus is the validity status of a control in a form tree.
type ControlStatus string

const (
	StatusValid    ControlStatus = "VALID"
	StatusInvalid  ControlStatus = "INVALID"
	StatusPending  ControlStatus = "PENDING"
	StatusDisabled ControlStatus = "DISABLED"
)

// ParseControlStatus validates and converts a status string.
func ParseControlStatus(s string) (ControlStatus, error) {
	switch st := ControlStatus(s); st {
	case StatusValid, StatusInvalid, StatusPending, StatusDisabled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// PathSegment represents one component of a dotted control path.
// Key for group children, Index for array children. Numeric segments keep
// their text in Key so groups with numeric child names still resolve.
type PathSegment struct {
	Key     string // group child name, or the raw text of a numeric segment
	Index   int    // array position, valid when IsIndex
	IsIndex bool   // disambiguates Index=0 from unset
}

// String renders the segment the way it appears in a dotted path.
func (s PathSegment) String() string {
	if s.IsIndex && s.Key == "" {
		return fmt.Sprintf("%d", s.Index)
	}
	return s.Key
}

// Resource limits enforced at construction time.
const (
	// MaxPathDepth bounds dotted control paths (a.b.c...).
	MaxPathDepth = 16

	// MaxTreeDepth bounds upward and downward walks during control resolution.
	// Guards against parent cycles introduced by a faulty Node implementation.
	MaxTreeDepth = 64

	// MaxRelationGroups limits relation groups attached to one model.
	MaxRelationGroups = 32

	// MaxConditionsPerGroup limits the when-list of one relation group.
	MaxConditionsPerGroup = 64
)
