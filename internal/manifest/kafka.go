// Where: cli/internal/manifest/kafka.go
// What: Kafka integration configuration.
// Why: Services opt in to the managed brokers of their region.
package manifest

// Kafka enables the managed event bus for a service.
type Kafka struct {
	// MountPodIP exposes the pod ip to the container for partition assignment.
	MountPodIP bool `yaml:"mountPodIP" json:"mountPodIP"`
	// Brokers is populated from the region during completion.
	Brokers []string `yaml:"brokers,omitempty" json:"brokers,omitempty"`
}
