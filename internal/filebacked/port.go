// Where: cli/internal/filebacked/port.go
// What: Port fragment with name validation and service port defaulting.
package filebacked

import (
	"fmt"
	"regexp"

	"github.com/clux/shipcat/internal/manifest"
)

// kube limits port names to 15 lowercase alphanumerics or hyphens
var portNameRe = regexp.MustCompile(`^[a-z0-9-]{1,15}$`)

// PortSource is a partially specified named port.
type PortSource struct {
	Name        string                 `yaml:"name"`
	Port        uint32                 `yaml:"port"`
	ServicePort *uint32                `yaml:"servicePort"`
	Protocol    *manifest.PortProtocol `yaml:"protocol"`
}

func (p PortSource) Build() (manifest.Port, error) {
	if !portNameRe.MatchString(p.Name) {
		return manifest.Port{}, fmt.Errorf("port names must be 1-15 lowercase alphanumeric characters or hyphens")
	}
	servicePort := p.Port
	if p.ServicePort != nil {
		servicePort = *p.ServicePort
	}
	protocol := manifest.ProtocolTCP
	if p.Protocol != nil {
		protocol = *p.Protocol
	}
	return manifest.Port{
		Name:        p.Name,
		Port:        p.Port,
		ServicePort: servicePort,
		Protocol:    protocol,
	}, nil
}

func buildPorts(sources []PortSource) ([]manifest.Port, error) {
	var ports []manifest.Port
	for _, src := range sources {
		p, err := src.Build()
		if err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, nil
}
