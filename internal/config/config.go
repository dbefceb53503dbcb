// Where: cli/internal/config/config.go
// What: The manifests repository configuration (shipcat.conf).
// Why: Global defaults, region definitions, and team ownership in one place.
package config

import (
	"fmt"

	"github.com/clux/shipcat/internal/manifest"
)

// Defaults applied to every service before its own manifest is merged in.
type Defaults struct {
	// Chart used when a service does not pick one.
	Chart string `yaml:"chart" json:"chart"`
	// ImagePrefix prepended to service names to form image names.
	ImagePrefix string `yaml:"imagePrefix" json:"imagePrefix"`
	// ReplicaCount used when a service does not set one.
	ReplicaCount uint32 `yaml:"replicaCount" json:"replicaCount"`
}

// Squad is an owning unit from the owners section.
type Squad struct {
	Name  string `yaml:"name" json:"name"`
	Tribe string `yaml:"tribe,omitempty" json:"tribe,omitempty"`
	// Support channel for humans, inherited by services without one.
	Support string `yaml:"support,omitempty" json:"support,omitempty"`
	// Notifications channel for automated messages.
	Notifications string `yaml:"notifications,omitempty" json:"notifications,omitempty"`
}

// Owners maps team identifiers to their squad definitions.
type Owners struct {
	Squads map[string]Squad `yaml:"squads" json:"squads"`
	Tribes map[string]Squad `yaml:"tribes,omitempty" json:"tribes,omitempty"`
}

// TeamNames lists the team identifiers services may reference.
func (o Owners) TeamNames() []string {
	var names []string
	for k := range o.Squads {
		names = append(names, k)
	}
	return names
}

// Config is the parsed shipcat.conf at the root of a manifests repository.
type Config struct {
	Defaults Defaults `yaml:"defaults" json:"defaults"`
	Regions  []Region `yaml:"regions" json:"regions"`
	Owners   Owners   `yaml:"owners" json:"owners"`

	// AllowedLabels services may attach to kube objects.
	AllowedLabels []string `yaml:"allowedLabels,omitempty" json:"allowedLabels,omitempty"`

	// ContextAliases maps kube context names to region names.
	ContextAliases map[string]string `yaml:"contextAliases,omitempty" json:"contextAliases,omitempty"`
}

// GetRegion resolves a region by name or context alias.
func (c *Config) GetRegion(name string) (*Region, error) {
	if alias, ok := c.ContextAliases[name]; ok {
		name = alias
	}
	for i := range c.Regions {
		if c.Regions[i].Name == name {
			return &c.Regions[i], nil
		}
	}
	return nil, fmt.Errorf("region %q does not exist in the config", name)
}

// RegionNames lists every configured region.
func (c *Config) RegionNames() []string {
	var names []string
	for i := range c.Regions {
		names = append(names, c.Regions[i].Name)
	}
	return names
}

// VerifyParams builds the manifest verification context from this config.
func (c *Config) VerifyParams() manifest.VerifyParams {
	return manifest.VerifyParams{
		AllowedLabels: c.AllowedLabels,
		AllowedTeams:  c.Owners.TeamNames(),
	}
}

// Verify checks the structural sanity of the config beyond the schema.
func (c *Config) Verify() error {
	if c.Defaults.Chart == "" {
		return fmt.Errorf("config defaults need a chart")
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("config needs at least one region")
	}
	seen := map[string]bool{}
	for i := range c.Regions {
		r := &c.Regions[i]
		if seen[r.Name] {
			return fmt.Errorf("config has duplicate region %s", r.Name)
		}
		seen[r.Name] = true
		if err := r.Verify(); err != nil {
			return err
		}
	}
	for alias, target := range c.ContextAliases {
		if !seen[target] {
			return fmt.Errorf("context alias %s points at unknown region %s", alias, target)
		}
	}
	if len(c.Owners.Squads) == 0 {
		return fmt.Errorf("config needs at least one squad in owners")
	}
	return nil
}
