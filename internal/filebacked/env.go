// Where: cli/internal/filebacked/env.go
// What: Env var fragment with key-wise override merging.
// Why: Region env defaults cascade under service-local values.
package filebacked

import (
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/merge"
)

// EnvVarsSource is the partially specified env map of a manifest layer.
type EnvVarsSource map[string]RelaxedString

// Merge unions both maps, values from other winning on key collisions.
func (e EnvVarsSource) Merge(other EnvVarsSource) EnvVarsSource {
	return EnvVarsSource(merge.Map(map[string]RelaxedString(e), map[string]RelaxedString(other)))
}

// Build converts to the strict env type, checking key validity.
func (e EnvVarsSource) Build() (manifest.EnvVars, error) {
	if len(e) == 0 {
		return nil, nil
	}
	env := make(manifest.EnvVars, len(e))
	for k, v := range e {
		env[k] = v.String()
	}
	if err := env.Verify(); err != nil {
		return nil, err
	}
	return env, nil
}
