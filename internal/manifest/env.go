// Where: cli/internal/manifest/env.go
// What: Environment variable map with secret placeholder handling.
// Why: Plain values render inline, IN_VAULT values resolve at completion time.
package manifest

import (
	"fmt"
	"regexp"
	"sort"
)

// InVault marks an env var whose value lives in the secret store.
const InVault = "IN_VAULT"

var envKeyRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// EnvVars is the environment for a container or service.
type EnvVars map[string]string

// Verify checks that every key is a sane UPPER_SNAKE_CASE identifier.
func (e EnvVars) Verify() error {
	for k := range e {
		if !envKeyRe.MatchString(k) {
			return fmt.Errorf("env var %q does not match %s", k, envKeyRe)
		}
	}
	return nil
}

// SecretKeys returns the sorted keys whose values are IN_VAULT.
func (e EnvVars) SecretKeys() []string {
	var keys []string
	for k, v := range e {
		if v == InVault {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
