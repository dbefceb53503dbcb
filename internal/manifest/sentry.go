// Where: cli/internal/manifest/sentry.go
// What: Sentry error reporting configuration.
// Why: Controls which env var carries the DSN and where alerts land.
package manifest

import (
	"fmt"
	"regexp"
)

var dsnEnvNameRe = regexp.MustCompile(`^([A-Z]+_)*[A-Z]+$`)

// Sentry configures error tracking for a service.
type Sentry struct {
	// Slack channel to route sentry notifications to.
	Slack string `yaml:"slack" json:"slack"`
	// Silent suppresses slack notifications entirely.
	Silent bool `yaml:"silent" json:"silent"`
	// DSNEnvName is the env var the DSN is injected under.
	DSNEnvName string `yaml:"dsnEnvName" json:"dsnEnvName"`
}

func (s *Sentry) Verify() error {
	if s.DSNEnvName != "" && !dsnEnvNameRe.MatchString(s.DSNEnvName) {
		return fmt.Errorf("sentry dsnEnvName %q must be UPPER_SNAKE_CASE", s.DSNEnvName)
	}
	return nil
}
