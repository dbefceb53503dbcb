// Where: cli/internal/manifest/rollingupdate.go
// What: Rolling update strategy parameters and rollout estimation.
// Why: Mirror kube's maxSurge/maxUnavailable semantics for upgrade planning.
package manifest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AvailabilityPolicy is kube's hybrid IntOrString for rolling update bounds:
// either an absolute replica count or a "NN%" percentage string.
type AvailabilityPolicy struct {
	Percent  string
	Unsigned uint32
	// IsPercent is true when the policy was given as a percentage string.
	IsPercent bool
}

// UnmarshalYAML accepts either an unsigned integer or a percentage string.
func (a *AvailabilityPolicy) UnmarshalYAML(value *yaml.Node) error {
	var n uint32
	if err := value.Decode(&n); err == nil {
		*a = AvailabilityPolicy{Unsigned: n}
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("availability policy must be an integer or a percentage string")
	}
	*a = AvailabilityPolicy{Percent: s, IsPercent: true}
	return nil
}

// MarshalYAML round-trips the original representation.
func (a AvailabilityPolicy) MarshalYAML() (interface{}, error) {
	if a.IsPercent {
		return a.Percent, nil
	}
	return a.Unsigned, nil
}

// Percentage returns the numeric percentage for a percent policy.
// Only valid after Verify has passed.
func (a AvailabilityPolicy) Percentage() uint32 {
	digits := strings.TrimSuffix(a.Percent, "%")
	n, _ := strconv.ParseUint(digits, 10, 32)
	return uint32(n)
}

// Verify checks the policy against the given replica bound. Percentage
// policies are only checked syntactically here; how many replicas they map
// to is worked out at rollout estimation time.
func (a AvailabilityPolicy) Verify(name string, maxNumber uint32) error {
	if a.IsPercent {
		if !strings.HasSuffix(a.Percent, "%") {
			return fmt.Errorf("%s must end with a '%%' sign", name)
		}
		digits := strings.TrimSuffix(a.Percent, "%")
		n, err := strconv.ParseUint(digits, 10, 32)
		if err != nil {
			return fmt.Errorf("%s percentage is not a number: %w", name, err)
		}
		if n > 100 {
			return fmt.Errorf("percentage value for %s cannot exceed 100", name)
		}
		return nil
	}
	if a.Unsigned > maxNumber {
		return fmt.Errorf("cannot have %s set higher than replicaCount %d", name, maxNumber)
	}
	return nil
}

// toReplicasCeil resolves the policy against a replica count, rounding up
// (used for maxSurge).
func (a AvailabilityPolicy) toReplicasCeil(replicas uint32) uint32 {
	if a.IsPercent {
		return uint32(math.Ceil(float64(replicas) * float64(a.Percentage()) / 100))
	}
	return a.Unsigned
}

// toReplicasFloor resolves the policy against a replica count, rounding down
// (used for maxUnavailable).
func (a AvailabilityPolicy) toReplicasFloor(replicas uint32) uint32 {
	if a.IsPercent {
		return uint32(math.Floor(float64(replicas) * float64(a.Percentage()) / 100))
	}
	return a.Unsigned
}

// RollingUpdate holds Deployment.spec.strategy.rollingUpdate parameters.
type RollingUpdate struct {
	// How many replicas or percentage of replicas that can be down during rolling-update
	MaxUnavailable *AvailabilityPolicy `yaml:"maxUnavailable,omitempty"`
	// Maximum number of pods that can be created over replicaCount
	MaxSurge *AvailabilityPolicy `yaml:"maxSurge,omitempty"`
}

// DefaultRollingUpdate matches the kube defaults of 25% / 25%.
func DefaultRollingUpdate() RollingUpdate {
	return RollingUpdate{
		MaxUnavailable: &AvailabilityPolicy{Percent: "25%", IsPercent: true},
		MaxSurge:       &AvailabilityPolicy{Percent: "25%", IsPercent: true},
	}
}

// Verify validates both policies against the replica count.
func (r RollingUpdate) Verify(replicas uint32) error {
	if r.MaxUnavailable == nil && r.MaxSurge == nil {
		return fmt.Errorf("need to set one of maxUnavailable or maxSurge in rollingUpdate")
	}
	if r.MaxUnavailable != nil {
		if err := r.MaxUnavailable.Verify("maxUnavailable", replicas); err != nil {
			return err
		}
	}
	if r.MaxSurge != nil {
		if err := r.MaxSurge.Verify("maxSurge", replicas); err != nil {
			return err
		}
	}
	return nil
}

// RolloutIterations estimates how many upgrade cycles are needed to roll out
// a new version, assuming a consistent rollout time per cycle. Unset policies
// fall back to the 25% kube default.
func (r RollingUpdate) RolloutIterations(replicas uint32) uint32 {
	var surge, unavail uint32
	if r.MaxSurge != nil {
		surge = r.MaxSurge.toReplicasCeil(replicas)
	} else {
		surge = uint32(math.Ceil(float64(replicas*25) / 100))
	}
	if r.MaxUnavailable != nil {
		unavail = r.MaxUnavailable.toReplicasFloor(replicas)
	} else {
		unavail = uint32(math.Floor(float64(replicas*25) / 100))
	}

	var newrs, iters uint32
	oldrs := replicas
	for newrs < replicas {
		// kill from oldrs the difference in total if we are surging
		oldrs -= oldrs + newrs - replicas
		total := newrs + oldrs

		unavailSafe := unavail
		if total <= unavail {
			unavailSafe = 0
		}
		if unavailSafe > oldrs {
			oldrs = 0
		} else {
			oldrs -= unavailSafe
		}
		// add new pods to cover and allow surging a little
		newrs += unavailSafe
		newrs += surge
		iters++
	}
	return iters
}

// RolloutIterationsDefault is the estimate when no rollingUpdate is set.
func RolloutIterationsDefault(replicas uint32) uint32 {
	return uint32(math.Ceil(float64(replicas) * 25.0 / 100))
}
