// Where: cli/internal/manifest/autoscaling.go
// What: HorizontalPodAutoscaler parameters.
// Why: Bound replica ranges before upgrade estimation uses them.
package manifest

import "fmt"

// AutoScaling holds the HorizontalPodAutoScaler parameters for a deployment.
type AutoScaling struct {
	MinReplicas uint32 `yaml:"minReplicas"`
	MaxReplicas uint32 `yaml:"maxReplicas"`

	// Metrics to scale on, passed through to the chart verbatim
	Metrics []map[string]interface{} `yaml:"metrics,omitempty"`
}

// Verify checks the replica range.
func (a AutoScaling) Verify() error {
	if a.MinReplicas == 0 {
		return fmt.Errorf("minReplicas must be at least 1")
	}
	if a.MinReplicas > a.MaxReplicas {
		return fmt.Errorf("maxReplicas must be >= minReplicas")
	}
	return nil
}
