// Where: cli/internal/manifest/metadata.go
// What: Service ownership metadata and slack channel validation.
// Why: Every service must be traceable to a team and a notification channel.
package manifest

import (
	"fmt"
	"regexp"
)

var (
	slackChannelPlainRe = regexp.MustCompile(`^#[a-z0-9._-]+$`)
	slackChannelIDRe    = regexp.MustCompile(`^[CG][A-Z0-9]+$`)
)

// SlackChannel is either a plaintext "#channel" name or a slack channel id.
type SlackChannel string

// Verify checks the channel reference shape.
func (s SlackChannel) Verify() error {
	if !slackChannelPlainRe.MatchString(string(s)) && !slackChannelIDRe.MatchString(string(s)) {
		return fmt.Errorf("channel is invalid: %s", s)
	}
	return nil
}

// Contact is a human attached to a service.
type Contact struct {
	// Free text name
	Name string `yaml:"name"`
	// Slack handle
	Slack string `yaml:"slack"`
	// Email address
	Email *string `yaml:"email,omitempty"`
	// Github username
	Github *string `yaml:"github,omitempty"`
}

// Verify checks handle shapes across the supported integrations.
func (c Contact) Verify() error {
	if c.Name == "" {
		return fmt.Errorf("contact name cannot be empty")
	}
	if len(c.Slack) == 0 || c.Slack[0] != '@' {
		return fmt.Errorf("contact slack handle needs to start with the slack guid '@U...' - got %s", c.Slack)
	}
	if c.Github != nil {
		gh := *c.Github
		if len(gh) > 0 && gh[0] == '@' {
			return fmt.Errorf("github id must be the raw username only - got %s", gh)
		}
	}
	return nil
}

// Metadata about the service, resolved against the team ownership config.
type Metadata struct {
	// Git repository
	Repo string `yaml:"repo"`
	// Owning team (squad name as configured in shipcat.conf)
	Team string `yaml:"team"`
	// Owning squad display name, resolved from the ownership config
	Squad *string `yaml:"squad,omitempty"`
	// Owning tribe display name, resolved from the ownership config
	Tribe *string `yaml:"tribe,omitempty"`
	// Release tagging scheme
	GitTagTemplate string `yaml:"gitTagTemplate,omitempty"`
	// Contact people
	Contacts []Contact `yaml:"contacts,omitempty"`
	// Support channel - human interaction
	Support *SlackChannel `yaml:"support,omitempty"`
	// Notifications channel - automated messages
	Notifications *SlackChannel `yaml:"notifications,omitempty"`
	// Link to runbook
	Runbook *string `yaml:"runbook,omitempty"`
	// Description of the service
	Description *string `yaml:"description,omitempty"`
	// Canonical documentation link
	Docs *string `yaml:"docs,omitempty"`
}

// Verify checks channels and contacts after ownership resolution.
func (m Metadata) Verify() error {
	for _, c := range m.Contacts {
		if err := c.Verify(); err != nil {
			return err
		}
	}
	if m.Support != nil {
		if err := m.Support.Verify(); err != nil {
			return err
		}
	}
	if m.Notifications != nil {
		if err := m.Notifications.Verify(); err != nil {
			return err
		}
	}
	return nil
}
