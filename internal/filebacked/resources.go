// Where: cli/internal/filebacked/resources.go
// What: Resource requirement fragments.
// Why: Both requests and limits must be stated before a build passes.
package filebacked

import (
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/merge"
)

// ResourcesSource is one half of a resource requirement fragment.
type ResourcesSource struct {
	CPU    *RelaxedString `yaml:"cpu"`
	Memory *RelaxedString `yaml:"memory"`
}

func (r ResourcesSource) Merge(other ResourcesSource) ResourcesSource {
	return ResourcesSource{
		CPU:    merge.Option(r.CPU, other.CPU),
		Memory: merge.Option(r.Memory, other.Memory),
	}
}

func (r ResourcesSource) Build() (manifest.Resources[string], error) {
	cpu, err := Require(r.CPU, "cpu")
	if err != nil {
		return manifest.Resources[string]{}, err
	}
	mem, err := Require(r.Memory, "memory")
	if err != nil {
		return manifest.Resources[string]{}, err
	}
	return manifest.Resources[string]{CPU: cpu.String(), Memory: mem.String()}, nil
}

// ResourceRequirementsSource pairs requests with limits.
type ResourceRequirementsSource struct {
	Requests ResourcesSource `yaml:"requests"`
	Limits   ResourcesSource `yaml:"limits"`
}

func (r ResourceRequirementsSource) Merge(other ResourceRequirementsSource) ResourceRequirementsSource {
	return ResourceRequirementsSource{
		Requests: r.Requests.Merge(other.Requests),
		Limits:   r.Limits.Merge(other.Limits),
	}
}

// Build resolves and bound-checks the requirements.
func (r ResourceRequirementsSource) Build() (manifest.ResourceRequirements[string], error) {
	requests, err := r.Requests.Build()
	if err != nil {
		return manifest.ResourceRequirements[string]{}, err
	}
	limits, err := r.Limits.Build()
	if err != nil {
		return manifest.ResourceRequirements[string]{}, err
	}
	res := manifest.ResourceRequirements[string]{Requests: requests, Limits: limits}
	if err := res.Verify(); err != nil {
		return manifest.ResourceRequirements[string]{}, err
	}
	return res, nil
}
