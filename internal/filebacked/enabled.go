// Where: cli/internal/filebacked/enabled.go
// What: Wrapper adding an `enabled` toggle around an inlined source fragment.
// Why: Region defaults can force a section on or off across all services.
package filebacked

import "github.com/clux/shipcat/internal/merge"

// Enabled wraps a source fragment with an optional enabled flag.
// Building yields nothing when enabled is explicitly false.
type Enabled[T merge.Mergeable[T]] struct {
	Enabled *bool `yaml:"enabled"`
	Item    T     `yaml:",inline"`
}

// Merge combines the flag and the inner fragment independently.
func (e Enabled[T]) Merge(other Enabled[T]) Enabled[T] {
	return Enabled[T]{
		Enabled: merge.Option(e.Enabled, other.Enabled),
		Item:    e.Item.Merge(other.Item),
	}
}

// IsDisabled reports whether building should be skipped entirely.
func (e Enabled[T]) IsDisabled() bool {
	return e.Enabled != nil && !*e.Enabled
}
