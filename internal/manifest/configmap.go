// Where: cli/internal/manifest/configmap.go
// What: Config map mounting, vault overrides, and service dependencies.
// Why: Small leaf types the manifest composes and validates together.
package manifest

import "fmt"

// ConfigMappedFile is one templated file inside a mounted config map.
type ConfigMappedFile struct {
	// Name of the template under the service folder.
	Name string `yaml:"name" json:"name"`
	// Rendered content, filled in during completion.
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// ConfigMap mounts rendered templates into the main container.
type ConfigMap struct {
	Name  string             `yaml:"name,omitempty" json:"name,omitempty"`
	Mount string             `yaml:"mount" json:"mount"`
	Files []ConfigMappedFile `yaml:"files" json:"files"`
}

func (c *ConfigMap) Verify() error {
	if c.Mount == "" {
		return fmt.Errorf("configs need a mount path")
	}
	if len(c.Mount) > 0 && c.Mount[len(c.Mount)-1] != '/' {
		return fmt.Errorf("config mount path %q must end with a slash", c.Mount)
	}
	if len(c.Files) == 0 {
		return fmt.Errorf("configs need at least one file")
	}
	for _, f := range c.Files {
		if f.Name == "" {
			return fmt.Errorf("config files need a name")
		}
	}
	return nil
}

// VaultOpts overrides where a service reads its secrets from.
type VaultOpts struct {
	// Name of the vault folder to read from instead of the service name.
	Name string `yaml:"name" json:"name"`
}

// Dependency on another in-cluster service.
type Dependency struct {
	Name string `yaml:"name" json:"name"`
	// API version of the dependency contract, e.g. v1.
	API string `yaml:"api,omitempty" json:"api,omitempty"`
	// Protocol used to talk to the dependency.
	Protocol string `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	// Intent is a short human reason for the dependency.
	Intent string `yaml:"intent,omitempty" json:"intent,omitempty"`
}

func (d *Dependency) Verify() error {
	if d.Name == "" {
		return fmt.Errorf("dependencies need a name")
	}
	if d.API != "" {
		if d.API[0] != 'v' {
			return fmt.Errorf("dependency %s api version %q must start with v", d.Name, d.API)
		}
	}
	switch d.Protocol {
	case "", "http", "grpc", "kafka", "amqp":
	default:
		return fmt.Errorf("dependency %s protocol %q not recognised", d.Name, d.Protocol)
	}
	return nil
}
