// Where: cli/internal/filebacked/relaxedstring.go
// What: String type that also accepts bare yaml scalars.
// Why: Env values like `PORT: 8080` or `DEBUG: true` should not need quoting.
package filebacked

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RelaxedString decodes any yaml scalar into its string form.
type RelaxedString string

func (r *RelaxedString) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected a scalar value, got %s", value.Tag)
	}
	*r = RelaxedString(value.Value)
	return nil
}

func (r RelaxedString) String() string {
	return string(r)
}
