// Where: cli/internal/manifest/resources.go
// What: Kubernetes resource requirements and quantity parsing.
// Why: Validate request/limit sanity before anything is handed to helm.
package manifest

import (
	"fmt"
	"math"
	"strconv"
)

// Resources holds cpu and memory quantities.
//
// In manifests T is a string in kube shorthand ("100m", "512Mi"); the
// normalised form uses float64 cores and bytes for computation.
type Resources[T string | float64] struct {
	CPU    T `yaml:"cpu" json:"cpu"`
	Memory T `yaml:"memory" json:"memory"`
}

// ResourceRequirements mirrors a kube container resources block and can be
// inlined straight into a container spec.
type ResourceRequirements[T string | float64] struct {
	Requests Resources[T] `yaml:"requests" json:"requests"`
	Limits   Resources[T] `yaml:"limits" json:"limits"`
}

// splitQuantity separates the leading decimal digit run from the unit suffix.
func splitQuantity(s string) (float64, string, error) {
	cut := len(s)
	for i, ch := range s {
		if (ch < '0' || ch > '9') && ch != '.' {
			cut = i
			break
		}
	}
	digits, unit := s[:cut], s[cut:]
	n, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return n, unit, nil
}

// ParseMemory parses a kube memory quantity into a byte count.
// Power of two suffixes (Ki/Mi/Gi) and SI suffixes (k/M/G) are recognized.
func ParseMemory(s string) (float64, error) {
	n, unit, err := splitQuantity(s)
	if err != nil {
		return 0, err
	}
	switch unit {
	case "":
	case "Ki":
		n *= 1024
	case "Mi":
		n *= 1024 * 1024
	case "Gi":
		n *= 1024 * 1024 * 1024
	case "k":
		n *= 1000
	case "M":
		n *= 1000 * 1000
	case "G":
		n *= 1000 * 1000 * 1000
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	return n, nil
}

// ParseCPU parses a kube cpu quantity into a number of cores.
// Power of two variants are not allowed here.
func ParseCPU(s string) (float64, error) {
	n, unit, err := splitQuantity(s)
	if err != nil {
		return 0, err
	}
	switch unit {
	case "":
	case "m":
		n /= 1000
	case "k":
		n *= 1000
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	return n, nil
}

// Normalised converts shorthand strings to raw cores and bytes.
func (r ResourceRequirements[T]) Normalised() (ResourceRequirements[float64], error) {
	var out ResourceRequirements[float64]
	var err error
	if out.Requests.CPU, err = ParseCPU(fmt.Sprint(r.Requests.CPU)); err != nil {
		return out, fmt.Errorf("requests.cpu: %w", err)
	}
	if out.Requests.Memory, err = ParseMemory(fmt.Sprint(r.Requests.Memory)); err != nil {
		return out, fmt.Errorf("requests.memory: %w", err)
	}
	if out.Limits.CPU, err = ParseCPU(fmt.Sprint(r.Limits.CPU)); err != nil {
		return out, fmt.Errorf("limits.cpu: %w", err)
	}
	if out.Limits.Memory, err = ParseMemory(fmt.Sprint(r.Limits.Memory)); err != nil {
		return out, fmt.Errorf("limits.memory: %w", err)
	}
	return out, nil
}

const gibibyte = 1024 * 1024 * 1024

// Verify checks that requests stay below limits and both stay below the
// sanity caps for a single deployment.
func (r ResourceRequirements[T]) Verify() error {
	n, err := r.Normalised()
	if err != nil {
		return err
	}
	req, lim := n.Requests, n.Limits

	if req.CPU > lim.CPU {
		return fmt.Errorf("requested more CPU than what was limited")
	}
	if req.Memory > lim.Memory {
		return fmt.Errorf("requested more memory than what was limited")
	}
	if req.CPU > 10 {
		return fmt.Errorf("requested more than 10 cores")
	}
	if req.Memory > 20*gibibyte {
		return fmt.Errorf("requested more than 20 GB of memory")
	}
	if lim.CPU > 20 {
		return fmt.Errorf("CPU limit set to more than 20 cores")
	}
	if lim.Memory > 30*gibibyte {
		return fmt.Errorf("memory limit set to more than 30 GB of memory")
	}
	return nil
}

// AddResources sums two normalised requirement sets, for resource aggregation.
func AddResources(a, b ResourceRequirements[float64]) ResourceRequirements[float64] {
	a.Requests.CPU += b.Requests.CPU
	a.Requests.Memory += b.Requests.Memory
	a.Limits.CPU += b.Limits.CPU
	a.Limits.Memory += b.Limits.Memory
	return a
}

// ScaleResources multiplies a normalised requirement set by a replica count.
func ScaleResources(r ResourceRequirements[float64], replicas uint32) ResourceRequirements[float64] {
	s := float64(replicas)
	r.Requests.CPU *= s
	r.Requests.Memory *= s
	r.Limits.CPU *= s
	r.Limits.Memory *= s
	return r
}

// RoundResources converts memory to gigabytes and rounds every value to two
// decimals, for human readable resource summaries.
func RoundResources(r *ResourceRequirements[float64]) {
	round := func(v float64) float64 { return math.Round(v*100) / 100 }
	r.Limits.Memory = round(r.Limits.Memory / gibibyte)
	r.Requests.Memory = round(r.Requests.Memory / gibibyte)
	r.Limits.CPU = round(r.Limits.CPU)
	r.Requests.CPU = round(r.Requests.CPU)
}
