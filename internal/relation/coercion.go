// internal/relation/coercion.go
package relation

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

/*
 * Value classification and coercion for comparison operators.
 *
 * Control values arrive from JSON (float64, string, bool, nil, []any,
 * map[string]any), YAML (int, float64, ...) or Go callers (any numeric kind,
 * typed slices). Operators need three views of a value:
 *
 *   - sequence: any slice or array except strings and []byte
 *   - number: every Go numeric kind folds to float64
 *   - loose scalar: nil, bool and numeric strings coerce to numbers for
 *     loose equality and ordering
 *
 * Strict equality never coerces across kinds except between numeric kinds,
 * which are all the same "number" type in a form value.
 */

// asSequence returns the elements of v when v is sequence-typed.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []any:
		return s, true
	case string, []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// toFloat64 converts value to float64 if it's a numeric type.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toLooseNumber converts scalars to numbers for loose comparison.
// nil -> 0, bool -> 0/1, strings parse after trimming ("" -> 0).
// Returns NaN for values with no numeric reading.
func toLooseNumber(v any) float64 {
	if n, ok := toFloat64(v); ok {
		return n
	}
	switch s := v.(type) {
	case nil:
		return 0
	case bool:
		if s {
			return 1
		}
		return 0
	case string:
		s = strings.TrimSpace(s)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// strictEqual compares without cross-kind coercion.
// Numeric kinds compare by value; non-comparable values compare deeply.
func strictEqual(a, b any) bool {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	if oka || okb {
		return oka && okb && na == nb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// looseEqual compares with scalar coercion.
// nil equals only nil; strings equal strings exactly; any other scalar
// pairing compares through toLooseNumber.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if strictEqual(a, b) {
		return true
	}
	if !isScalar(a) || !isScalar(b) {
		return false
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aStr && bStr {
		return false
	}
	na, nb := toLooseNumber(a), toLooseNumber(b)
	return !math.IsNaN(na) && !math.IsNaN(nb) && na == nb
}

// isScalar reports whether v is a string, bool or number.
func isScalar(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	}
	_, ok := toFloat64(v)
	return ok
}

// contains checks membership with strict equality.
func contains(seq []any, v any) bool {
	for _, elem := range seq {
		if strictEqual(elem, v) {
			return true
		}
	}
	return false
}

// setEqual compares two sequences as multisets: same length and, after
// sorting both by natural order, pairwise strictly equal.
func setEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]any(nil), a...)
	sb := append([]any(nil), b...)
	sort.SliceStable(sa, func(i, j int) bool { return naturalLess(sa[i], sa[j]) })
	sort.SliceStable(sb, func(i, j int) bool { return naturalLess(sb[i], sb[j]) })
	for i := range sa {
		if !strictEqual(sa[i], sb[i]) {
			return false
		}
	}
	return true
}

// kindRank orders values of different kinds: nil < bool < number < string < other.
func kindRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := v.(bool); ok {
		return 1
	}
	if _, ok := toFloat64(v); ok {
		return 2
	}
	if _, ok := v.(string); ok {
		return 3
	}
	return 4
}

// naturalLess is a total order used for set comparison. Mixed kinds sort
// by kindRank, so [1, "1"] and ["1", 1] are the same set.
func naturalLess(a, b any) bool {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 1:
		return !a.(bool) && b.(bool)
	case 2:
		na, _ := toFloat64(a)
		nb, _ := toFloat64(b)
		return na < nb
	case 3:
		return a.(string) < b.(string)
	case 4:
		return reflect.TypeOf(a).String() < reflect.TypeOf(b).String()
	default:
		return false
	}
}

// lengthOf returns the length used by ordering operators on sequences.
// Strings report their rune count; other scalars have no length.
func lengthOf(v any) (float64, bool) {
	if seq, ok := asSequence(v); ok {
		return float64(len(seq)), true
	}
	if s, ok := v.(string); ok {
		return float64(utf8.RuneCountInString(s)), true
	}
	return 0, false
}

// compareOrdered performs three-way scalar comparison.
// Two strings compare lexicographically; anything else compares as loose
// numbers. ok=false when either side has no numeric reading (NaN).
func compareOrdered(a, b any) (int, bool) {
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.Compare(as, bs), true
	}
	na, nb := toLooseNumber(a), toLooseNumber(b)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}
