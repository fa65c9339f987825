// internal/form/path.go
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/formrel/internal/types"
)

/*
 * Dotted control paths.
 *
 * A path names a control relative to a branch: "address.street" walks a
 * group child, "contacts.0.phone" walks an array item by position. Numeric
 * segments are indices only when the current node is an array; group
 * children may themselves have numeric names.
 *
 * Limits: paths deeper than types.MaxPathDepth are rejected, as are empty
 * segments ("a..b", ".a", "a.").
 */

// ParsePath splits a dotted path into segments.
func ParsePath(path string) ([]types.PathSegment, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", types.ErrInvalidPath)
	}

	parts := strings.Split(path, ".")
	if len(parts) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}

	segs := make([]types.PathSegment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", types.ErrInvalidPath, path)
		}
		if n, err := strconv.Atoi(p); err == nil && n >= 0 {
			segs = append(segs, types.PathSegment{Key: p, Index: n, IsIndex: true})
			continue
		}
		segs = append(segs, types.PathSegment{Key: p})
	}
	return segs, nil
}

// FormatPath joins segments back into dotted form.
func FormatPath(segs []types.PathSegment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// walk follows segs from start. Returns nil when any segment is missing or
// the path continues below a leaf.
func walk(start AbstractControl, segs []types.PathSegment) AbstractControl {
	current := start
	for _, seg := range segs {
		switch n := current.(type) {
		case *Group:
			child, ok := n.controls[seg.Key]
			if !ok {
				return nil
			}
			current = child
		case *Array:
			if !seg.IsIndex || seg.Index >= len(n.items) {
				return nil
			}
			current = n.items[seg.Index]
		default:
			return nil
		}
	}
	return current
}
