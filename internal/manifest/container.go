// Where: cli/internal/manifest/container.go
// What: Validated container, port, and volume mount types.
// Why: Shared shape for the main deployment, sidecars, workers, and jobs.
package manifest

import (
	"fmt"
	"regexp"
)

var portNameRe = regexp.MustCompile(`^[a-z0-9-]{1,15}$`)

// Container is a fully built kube container spec.
type Container struct {
	Name    string  `yaml:"name"`
	Image   *string `yaml:"image,omitempty"`
	Version *string `yaml:"version,omitempty"`

	Resources *ResourceRequirements[string] `yaml:"resources,omitempty"`

	Command []string `yaml:"command,omitempty"`
	Env     EnvVars  `yaml:"env,omitempty"`

	ReadinessProbe *Probe `yaml:"readinessProbe,omitempty"`
	LivenessProbe  *Probe `yaml:"livenessProbe,omitempty"`

	Ports []Port `yaml:"ports,omitempty"`

	VolumeMounts []VolumeMount `yaml:"volumeMounts,omitempty"`
}

// Verify runs the semantic checks shared by all container-shaped workloads.
func (c *Container) Verify() error {
	if err := c.Env.Verify(); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	for k, v := range c.Env {
		if v == InVault {
			return fmt.Errorf("%s: env var %s: secret env vars must go in the root service", c.Name, k)
		}
	}
	if c.Resources != nil {
		if err := c.Resources.Verify(); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	for i := range c.Ports {
		if err := c.Ports[i].Verify(); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	if c.ReadinessProbe != nil {
		if err := c.ReadinessProbe.Verify(); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	if c.LivenessProbe != nil {
		if err := c.LivenessProbe.Verify(); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	return nil
}

// PortProtocol is the L4 protocol exposed by a port.
type PortProtocol string

const (
	ProtocolTCP PortProtocol = "TCP"
	ProtocolUDP PortProtocol = "UDP"
)

// Port to open on a container and optionally on its kube service.
type Port struct {
	// Name of the port
	Name string `yaml:"name"`
	// Port to open
	Port uint32 `yaml:"port"`
	// Port to expose on the kube service
	ServicePort uint32 `yaml:"servicePort"`
	// Port protocol
	Protocol PortProtocol `yaml:"protocol"`
}

func (p *Port) Verify() error {
	if !portNameRe.MatchString(p.Name) {
		return fmt.Errorf("port name %q must match %s", p.Name, portNameRe)
	}
	switch p.Protocol {
	case ProtocolTCP, ProtocolUDP:
	default:
		return fmt.Errorf("port %s protocol must be TCP or UDP", p.Name)
	}
	return nil
}

// VolumeMount mounts a named volume into a container.
type VolumeMount struct {
	Name      string `yaml:"name"`
	MountPath string `yaml:"mountPath"`
	SubPath   string `yaml:"subPath,omitempty"`
	ReadOnly  bool   `yaml:"readOnly,omitempty"`
}

// Volume is a pod-level volume definition, passed through to the chart.
type Volume struct {
	Name   string                 `yaml:"name"`
	Source map[string]interface{} `yaml:",inline"`
}
