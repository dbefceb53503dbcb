// Where: cli/internal/manifest/probes.go
// What: Liveness and readiness probe types with kube-aligned defaults.
// Why: Allow complete control over probes when the simple health block is not enough.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// HTTPGet is an http probe handler.
type HTTPGet struct {
	// Uri path to GET (i.e. / or /health)
	Path string `yaml:"path"`
	// Port name (i.e. http or http-health)
	Port string `yaml:"port"`
	// Headers to set
	HTTPHeaders []HTTPHeader `yaml:"httpHeaders,omitempty"`
}

type HTTPHeader struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Exec is a shell probe handler.
type Exec struct {
	// Command to execute in the container
	Command []string `yaml:"command"`
}

// TCPSocket is a socket probe handler.
type TCPSocket struct {
	Port string `yaml:"port"`
}

// Probe is a liveness or readiness probe.
type Probe struct {
	HTTPGet   *HTTPGet   `yaml:"httpGet,omitempty"`
	Exec      *Exec      `yaml:"exec,omitempty"`
	TCPSocket *TCPSocket `yaml:"tcpSocket,omitempty"`

	// How long to wait before kube performs the first probe
	InitialDelaySeconds uint32 `yaml:"initialDelaySeconds"`
	// How long between each probe
	PeriodSeconds uint32 `yaml:"periodSeconds"`
	// Min consecutive successes before considering a failed probe successful
	SuccessThreshold uint32 `yaml:"successThreshold"`
	// Min consecutive failures before considering a probe failed
	FailureThreshold uint32 `yaml:"failureThreshold"`
	// Number of seconds after which the probe times out
	TimeoutSeconds uint32 `yaml:"timeoutSeconds"`
}

// UnmarshalYAML applies kube-aligned defaults before decoding, with a
// slightly higher initial delay than the kube standard.
func (p *Probe) UnmarshalYAML(value *yaml.Node) error {
	type plain Probe
	out := plain{
		InitialDelaySeconds: 30,
		PeriodSeconds:       5,
		SuccessThreshold:    1,
		FailureThreshold:    3,
		TimeoutSeconds:      1,
	}
	if err := value.Decode(&out); err != nil {
		return err
	}
	if out.HTTPGet != nil && out.HTTPGet.Port == "" {
		out.HTTPGet.Port = "http"
	}
	*p = Probe(out)
	return nil
}

// Verify checks that exactly one probe handler is set.
func (p Probe) Verify() error {
	if p.HTTPGet != nil && (p.Exec != nil || p.TCPSocket != nil) {
		return fmt.Errorf("probe needs to have at most one of 'httpGet', 'exec', 'tcpSocket'")
	}
	if p.HTTPGet == nil && p.Exec == nil && p.TCPSocket == nil {
		return fmt.Errorf("probe needs to define one of 'httpGet', 'exec', 'tcpSocket'")
	}
	return nil
}

// HealthCheck generates http liveness and readiness probes for the main
// container when full probe control is not needed.
type HealthCheck struct {
	// Where the health check is located
	URI string `yaml:"uri"`
	// How long to wait after boot in seconds
	Wait uint32 `yaml:"wait"`
	// Health check port (if different from main httpPort)
	Port *uint32 `yaml:"port,omitempty"`
}

// UnmarshalYAML applies the /health and 30s wait defaults.
func (h *HealthCheck) UnmarshalYAML(value *yaml.Node) error {
	type plain HealthCheck
	out := plain{URI: "/health", Wait: 30}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*h = HealthCheck(out)
	return nil
}
