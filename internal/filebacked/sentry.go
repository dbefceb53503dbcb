// Where: cli/internal/filebacked/sentry.go
// What: Sentry fragment resolving against the owning team's channel.
package filebacked

import (
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/merge"
)

// SentrySource is the error tracking fragment of a service manifest.
type SentrySource struct {
	DSNEnvName *string `yaml:"dsnEnvName"`
	Silent     *bool   `yaml:"silent"`
	Slack      *string `yaml:"slack"`
}

func (s SentrySource) Merge(other SentrySource) SentrySource {
	return SentrySource{
		DSNEnvName: merge.Option(s.DSNEnvName, other.DSNEnvName),
		Silent:     merge.Option(s.Silent, other.Silent),
		Slack:      merge.Option(s.Slack, other.Slack),
	}
}

// Build resolves the fragment, defaulting the slack channel to the
// team's notification channel and the DSN env var to SENTRY_DSN.
func (s SentrySource) Build(defaultChannel string) (*manifest.Sentry, error) {
	slack := defaultChannel
	if s.Slack != nil {
		if err := manifest.SlackChannel(*s.Slack).Verify(); err != nil {
			return nil, err
		}
		slack = *s.Slack
	}
	out := &manifest.Sentry{
		Slack:      slack,
		DSNEnvName: "SENTRY_DSN",
	}
	if s.Silent != nil {
		out.Silent = *s.Silent
	}
	if s.DSNEnvName != nil {
		out.DSNEnvName = *s.DSNEnvName
	}
	if err := out.Verify(); err != nil {
		return nil, err
	}
	return out, nil
}
