// Where: cli/internal/manifest/math.go
// What: Derived calculations over a built manifest.
// Why: Upgrade wait estimation and cluster-wide resource accounting.
package manifest

import "fmt"

// ResourceTotals is the total resource usage for one service.
type ResourceTotals struct {
	// Base is the sum of requested resources, ignoring autoscaling limits.
	Base ResourceRequirements[float64] `yaml:"base" json:"base"`
	// Extra is the autoscaling ceiling on top of Base.
	Extra ResourceRequirements[float64] `yaml:"extra" json:"extra"`
}

// EstimateWaitTime guesses how many seconds a rolling upgrade needs,
// based on image pull time and boot wait per rollout iteration.
// Returns zero when the image size is unknown.
func (m *Manifest) EstimateWaitTime() uint32 {
	if m.ImageSize == 0 || m.ReplicaCount == 0 {
		return 0
	}
	// 512MB image => extra 60s wait per pull
	pullEstimate := uint32(float64(m.ImageSize*120) / 1024)

	var iterations uint32
	if m.RollingUpdate != nil {
		iterations = m.RollingUpdate.RolloutIterations(m.ReplicaCount)
	} else {
		iterations = RolloutIterationsDefault(m.ReplicaCount)
	}

	switch {
	case m.Health != nil:
		return (m.Health.Wait + pullEstimate) * iterations
	case m.ReadinessProbe != nil:
		return (m.ReadinessProbe.InitialDelaySeconds + pullEstimate) * iterations
	default:
		// sensible boot time guess when no probe hints exist
		return (30 + pullEstimate) * iterations
	}
}

// ComputeResourceTotals sums the resource usage across the main
// deployment, its sidecars, and all workers. Assumes Verify has passed.
func (m *Manifest) ComputeResourceTotals() (ResourceTotals, error) {
	var base, extra ResourceRequirements[float64]
	if m.Resources == nil {
		return ResourceTotals{}, fmt.Errorf("%s has no resources", m.Name)
	}
	res, err := m.Resources.Normalised()
	if err != nil {
		return ResourceTotals{}, fmt.Errorf("%s: %w", m.Name, err)
	}

	if m.AutoScaling != nil {
		base = AddResources(base, ScaleResources(res, m.AutoScaling.MinReplicas))
		extra = AddResources(extra, ScaleResources(res, m.AutoScaling.MaxReplicas-m.AutoScaling.MinReplicas))
	} else if m.ReplicaCount > 0 {
		base = AddResources(base, ScaleResources(res, m.ReplicaCount))
		for i := range m.Sidecars {
			if sc := m.Sidecars[i].Resources; sc != nil {
				// sidecar replica count follows the main deployment
				n, err := sc.Normalised()
				if err != nil {
					return ResourceTotals{}, fmt.Errorf("%s: sidecar %s: %w", m.Name, m.Sidecars[i].Name, err)
				}
				base = AddResources(base, ScaleResources(n, m.ReplicaCount))
			}
		}
	} else {
		return ResourceTotals{}, fmt.Errorf("%s does not have a replica count", m.Name)
	}

	for i := range m.Workers {
		w := &m.Workers[i]
		if w.Resources == nil {
			continue
		}
		n, err := w.Resources.Normalised()
		if err != nil {
			return ResourceTotals{}, fmt.Errorf("%s: worker %s: %w", m.Name, w.Name, err)
		}
		base = AddResources(base, ScaleResources(n, w.Replicas))
		// workers get the same sidecars as the main deployment
		for j := range m.Sidecars {
			if sc := m.Sidecars[j].Resources; sc != nil {
				sn, err := sc.Normalised()
				if err != nil {
					return ResourceTotals{}, fmt.Errorf("%s: sidecar %s: %w", m.Name, m.Sidecars[j].Name, err)
				}
				base = AddResources(base, ScaleResources(sn, w.Replicas))
			}
		}
	}

	RoundResources(&base)
	RoundResources(&extra)
	return ResourceTotals{Base: base, Extra: extra}, nil
}
