// Package envutil provides helper functions for environment variable handling.
package envutil

import (
	"os"

	"github.com/clux/shipcat/internal/meta"
)

// HostEnvKey constructs a host-level environment variable name
// by combining the project prefix with the given suffix.
// Example: HostEnvKey("AUDIT_WEBHOOK_URL") returns "SHIPCAT_AUDIT_WEBHOOK_URL".
func HostEnvKey(suffix string) string {
	return meta.EnvPrefix + "_" + suffix
}

// GetHostEnv retrieves a host-level environment variable.
// Example: GetHostEnv("AUDIT_REVISION") returns the value of SHIPCAT_AUDIT_REVISION.
func GetHostEnv(suffix string) string {
	return os.Getenv(HostEnvKey(suffix))
}

// LookupHostEnv retrieves a host-level environment variable and reports
// whether it was set at all.
func LookupHostEnv(suffix string) (string, bool) {
	return os.LookupEnv(HostEnvKey(suffix))
}
