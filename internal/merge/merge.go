// Where: cli/internal/merge/merge.go
// What: Pairwise merge primitives for layered manifest fragments.
// Why: Give every source fragment the same "defined fields win" cascade rule.
package merge

// Mergeable is implemented by compound source records.
//
// Merge combines two instances of the same type field by field, in declared
// order; values defined in other take precedence over values defined in the
// receiver. Merging never fails: semantic validation is deferred to build time.
type Mergeable[T any] interface {
	Merge(other T) T
}

// Option merges two optional values. Returns b when it is defined, else a.
func Option[T any](a, b *T) *T {
	if b != nil {
		return b
	}
	return a
}

// Map merges two maps with right bias: the result is the union of both, and
// on a key collision the value from b fully replaces the value from a.
// Equal keys are NOT value-merged.
// TODO: merge values if defined in both?
func Map[K comparable, V any](a, b map[K]V) map[K]V {
	if a == nil && b == nil {
		return nil
	}
	merged := make(map[K]V, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	return merged
}

// Slice merges two optional lists. A defined (non-nil) b replaces a entirely;
// lists are not concatenated so a region file can fully override a base list.
func Slice[T any](a, b []T) []T {
	if b != nil {
		return b
	}
	return a
}
