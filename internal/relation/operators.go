// internal/relation/operators.go
package relation

import "sort"

/*
 * Comparison operator registry.
 *
 * Maps operator symbols to binary predicates over a control's live value (a)
 * and a condition's configured value (b). Either side may be a sequence.
 *
 * Operators:
 *   - == / ===: containment when exactly one side is a sequence, set equality
 *     when both are, loose/strict scalar equality otherwise. == additionally
 *     fails fast when exactly one side is nil.
 *   - != / !==: negated containment/set equality/scalar equality
 *   - > < >= <=: sequence lengths when either side is a sequence, scalars otherwise
 *   - exists / not-exists: non-empty sequence or non-nil scalar
 *
 * Registries are immutable. With() returns an extended copy so a host can
 * sandbox custom symbols per form without touching other forms.
 */

// DefaultOperator is used for empty and unknown symbols.
const DefaultOperator = "==="

// Predicate compares a control value (a) against a configured value (b).
type Predicate func(a, b any) bool

// Registry maps operator symbols to predicates.
type Registry struct {
	ops map[string]Predicate
}

var defaultOps = map[string]Predicate{
	"==":         opLooseEqual,
	"===":        opStrictEqual,
	"!=":         opLooseNotEqual,
	"!==":        opStrictNotEqual,
	">":          orderedOp(func(c int) bool { return c > 0 }),
	"<":          orderedOp(func(c int) bool { return c < 0 }),
	">=":         orderedOp(func(c int) bool { return c >= 0 }),
	"<=":         orderedOp(func(c int) bool { return c <= 0 }),
	"exists":     opExists,
	"not-exists": opNotExists,
}

// DefaultRegistry returns a registry holding the built-in operators.
func DefaultRegistry() *Registry {
	ops := make(map[string]Predicate, len(defaultOps))
	for sym, fn := range defaultOps {
		ops[sym] = fn
	}
	return &Registry{ops: ops}
}

// With returns a copy of r with symbol bound to fn. r is unchanged.
func (r *Registry) With(symbol string, fn Predicate) *Registry {
	ops := make(map[string]Predicate, len(r.ops)+1)
	for sym, p := range r.ops {
		ops[sym] = p
	}
	ops[symbol] = fn
	return &Registry{ops: ops}
}

// Lookup returns the predicate for symbol, falling back to "===".
func (r *Registry) Lookup(symbol string) Predicate {
	if fn, ok := r.ops[symbol]; ok && symbol != "" {
		return fn
	}
	return r.ops[DefaultOperator]
}

// Has reports whether symbol is registered.
func (r *Registry) Has(symbol string) bool {
	_, ok := r.ops[symbol]
	return ok
}

// Symbols returns the registered symbols in sorted order.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.ops))
	for sym := range r.ops {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Compare applies the operator for symbol using the registry.
func (r *Registry) Compare(symbol string, a, b any) bool {
	return r.Lookup(symbol)(a, b)
}

// Compare applies a built-in operator. Unknown symbols use "===".
func Compare(symbol string, a, b any) bool {
	fn, ok := defaultOps[symbol]
	if !ok {
		fn = defaultOps[DefaultOperator]
	}
	return fn(a, b)
}

// sequenceEquality handles the containment and set-equality detours shared
// by the equality operators. handled=false means both sides are scalars.
func sequenceEquality(a, b any) (equal bool, handled bool) {
	sa, aSeq := asSequence(a)
	sb, bSeq := asSequence(b)
	switch {
	case aSeq && !bSeq:
		return contains(sa, b), true
	case bSeq && !aSeq:
		return contains(sb, a), true
	case aSeq && bSeq:
		return setEqual(sa, sb), true
	default:
		return false, false
	}
}

func opLooseEqual(a, b any) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if eq, ok := sequenceEquality(a, b); ok {
		return eq
	}
	return looseEqual(a, b)
}

func opStrictEqual(a, b any) bool {
	if eq, ok := sequenceEquality(a, b); ok {
		return eq
	}
	return strictEqual(a, b)
}

func opLooseNotEqual(a, b any) bool {
	if eq, ok := sequenceEquality(a, b); ok {
		return !eq
	}
	return !looseEqual(a, b)
}

func opStrictNotEqual(a, b any) bool {
	if eq, ok := sequenceEquality(a, b); ok {
		return !eq
	}
	return !strictEqual(a, b)
}

// orderedOp builds a relational operator from a three-way comparison test.
// Sequences compare by length; a side with no length never satisfies it.
func orderedOp(test func(int) bool) Predicate {
	return func(a, b any) bool {
		_, aSeq := asSequence(a)
		_, bSeq := asSequence(b)
		if aSeq || bSeq {
			la, oka := lengthOf(a)
			lb, okb := lengthOf(b)
			if !oka || !okb {
				return false
			}
			c, _ := compareOrdered(la, lb)
			return test(c)
		}
		c, ok := compareOrdered(a, b)
		return ok && test(c)
	}
}

func opExists(a, _ any) bool {
	if seq, ok := asSequence(a); ok {
		return len(seq) > 0
	}
	return a != nil
}

func opNotExists(a, b any) bool {
	return !opExists(a, b)
}
