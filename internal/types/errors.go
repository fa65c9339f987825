package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for formrel operations.
var (
	// ErrSelfDependency indicates a relation condition targets its own model.
	ErrSelfDependency = errors.New("form control cannot depend on itself")

	// ErrInvalidConnective indicates a connective other than AND/OR.
	ErrInvalidConnective = errors.New("invalid relation connective")

	// ErrInvalidStatus indicates an unknown control status name.
	ErrInvalidStatus = errors.New("invalid control status")

	// ErrEmptyRelation indicates a relation group with no conditions.
	ErrEmptyRelation = errors.New("relation has no conditions")

	// ErrMissingTargetID indicates a condition without a control id.
	ErrMissingTargetID = errors.New("relation condition has no target id")

	// ErrTooManyRelations indicates a model exceeds MaxRelationGroups.
	ErrTooManyRelations = errors.New("model has too many relation groups")

	// ErrTooManyConditions indicates a group exceeds MaxConditionsPerGroup.
	ErrTooManyConditions = errors.New("relation has too many conditions")

	// ErrPathTooDeep indicates a control path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("control path exceeds maximum depth")

	// ErrInvalidPath indicates a malformed dotted control path.
	ErrInvalidPath = errors.New("invalid control path")

	// ErrControlNotFound indicates a control path could not be resolved.
	ErrControlNotFound = errors.New("control not found")

	// ErrDuplicateControl indicates two siblings share an id.
	ErrDuplicateControl = errors.New("duplicate control id")

	// ErrFormNotFound indicates a stored form definition does not exist.
	ErrFormNotFound = errors.New("form not found")
)

// SelfDependencyError names the model whose relation references itself.
// Fatal: a self-referential relation re-triggers its own evaluation forever.
type SelfDependencyError struct {
	ModelID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("form control %s cannot depend on itself", e.ModelID)
}

// Is matches ErrSelfDependency.
func (e *SelfDependencyError) Is(target error) bool {
	return target == ErrSelfDependency
}

// InvalidConnectiveError carries the rejected connective string.
type InvalidConnectiveError struct {
	Value string
}

func (e *InvalidConnectiveError) Error() string {
	return fmt.Sprintf("invalid relation connective %q (expected AND or OR)", e.Value)
}

// Is matches ErrInvalidConnective.
func (e *InvalidConnectiveError) Is(target error) bool {
	return target == ErrInvalidConnective
}
