// Where: cli/internal/filebacked/require.go
// What: Small helpers for turning optional source fields into required values.
// Why: Build-time required checks share one error shape.
package filebacked

import "fmt"

// Require unwraps an optional source field, failing with the field name
// when it was never set in any manifest layer.
func Require[T any](v *T, name string) (T, error) {
	if v == nil {
		var zero T
		return zero, fmt.Errorf("%s is required", name)
	}
	return *v, nil
}
