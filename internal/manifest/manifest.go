// Where: cli/internal/manifest/manifest.go
// What: The fully built service manifest and its semantic verification.
// Why: Single source of truth handed to the helm values and kong renderers.
package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// State tracks how far through the lifecycle a manifest has progressed.
type State string

const (
	// StateBase is the merged manifest without secrets.
	StateBase State = "Base"
	// StateCompleted has real secrets injected from the secret store.
	StateCompleted State = "Completed"
	// StateStubbed has fake secrets injected for offline rendering.
	StateStubbed State = "Stubbed"
)

var serviceNameRe = regexp.MustCompile(`^[0-9a-z\-]{1,50}$`)

// Manifest is the fully merged and built configuration for one service in
// one region. Only manifests produced by the build pipeline should exist;
// the yaml tags define the rendered helm values document.
type Manifest struct {
	// Name of the service, dash separated and lower case for kube dns.
	Name string `yaml:"name" json:"name"`

	// PubliclyAccessible exposes the service through the public gateway.
	PubliclyAccessible bool `yaml:"publiclyAccessible,omitempty" json:"publiclyAccessible,omitempty"`
	// External marks a non-kube reference service, skipping most validation.
	External bool `yaml:"-" json:"-"`
	// Disabled blocks usage of this service in all regions.
	Disabled bool `yaml:"-" json:"-"`
	// Regions this service may deploy to.
	Regions []string `yaml:"-" json:"-"`

	Metadata *Metadata `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	// Chart used to render this service.
	Chart string `yaml:"chart" json:"chart"`
	// Image is the full docker image name, without tag.
	Image string `yaml:"image" json:"image"`
	// ImageSize is the uncompressed image size in MB, for wait estimation.
	ImageSize uint32 `yaml:"-" json:"-"`
	// Version aka. the docker image tag.
	Version string `yaml:"version" json:"version"`

	Command []string `yaml:"command,omitempty" json:"command,omitempty"`

	Resources    *ResourceRequirements[string] `yaml:"resources,omitempty" json:"resources,omitempty"`
	ReplicaCount uint32                        `yaml:"replicaCount" json:"replicaCount"`

	Env         EnvVars           `yaml:"env,omitempty" json:"env,omitempty"`
	SecretFiles map[string]string `yaml:"secretFiles,omitempty" json:"secretFiles,omitempty"`
	Configs     *ConfigMap        `yaml:"configs,omitempty" json:"configs,omitempty"`
	Vault       *VaultOpts        `yaml:"vault,omitempty" json:"vault,omitempty"`

	HTTPPort     *uint32 `yaml:"httpPort,omitempty" json:"httpPort,omitempty"`
	ExternalPort *uint32 `yaml:"externalPort,omitempty" json:"externalPort,omitempty"`
	Ports        []Port  `yaml:"ports,omitempty" json:"ports,omitempty"`

	Health         *HealthCheck `yaml:"health,omitempty" json:"health,omitempty"`
	ReadinessProbe *Probe       `yaml:"readinessProbe,omitempty" json:"readinessProbe,omitempty"`
	LivenessProbe  *Probe       `yaml:"livenessProbe,omitempty" json:"livenessProbe,omitempty"`

	Dependencies []Dependency `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	Workers        []Worker    `yaml:"workers,omitempty" json:"workers,omitempty"`
	Sidecars       []Container `yaml:"sidecars,omitempty" json:"sidecars,omitempty"`
	InitContainers []Container `yaml:"initContainers,omitempty" json:"initContainers,omitempty"`
	Jobs           []Job       `yaml:"jobs,omitempty" json:"jobs,omitempty"`
	CronJobs       []CronJob   `yaml:"cronJobs,omitempty" json:"cronJobs,omitempty"`

	RollingUpdate *RollingUpdate `yaml:"rollingUpdate,omitempty" json:"rollingUpdate,omitempty"`
	AutoScaling   *AutoScaling   `yaml:"autoScaling,omitempty" json:"autoScaling,omitempty"`

	Volumes      []Volume      `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	VolumeMounts []VolumeMount `yaml:"volumeMounts,omitempty" json:"volumeMounts,omitempty"`

	ServiceAnnotations map[string]string `yaml:"serviceAnnotations,omitempty" json:"serviceAnnotations,omitempty"`
	PodAnnotations     map[string]string `yaml:"podAnnotations,omitempty" json:"podAnnotations,omitempty"`
	Labels             map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`

	KongAPIs []Kong  `yaml:"kongApis,omitempty" json:"kongApis,omitempty"`
	Kafka    *Kafka  `yaml:"kafka,omitempty" json:"kafka,omitempty"`
	Sentry   *Sentry `yaml:"sentry,omitempty" json:"sentry,omitempty"`

	SourceRanges []string `yaml:"sourceRanges,omitempty" json:"sourceRanges,omitempty"`

	// Region, Environment and Namespace are injected from the region
	// config during build, never read from manifests.
	Region      string `yaml:"region" json:"region"`
	Environment string `yaml:"environment" json:"environment"`
	Namespace   string `yaml:"namespace" json:"namespace"`

	// Secrets holds resolved env secrets, partitioned out of Env.
	Secrets map[string]string `yaml:"secrets,omitempty" json:"secrets,omitempty"`

	// State of the manifest lifecycle. Not serialized.
	State State `yaml:"-" json:"-"`
}

// VerifyParams carries the config-level context the semantic checks need.
type VerifyParams struct {
	// AllowedLabels a service may attach to its kube objects.
	AllowedLabels []string
	// AllowedTeams from the owners file.
	AllowedTeams []string
}

// VerifyRegion checks the manifest is enabled in its injected region.
func (m *Manifest) VerifyRegion() error {
	if m.Region == "" {
		return fmt.Errorf("%s has not been built for a region", m.Name)
	}
	for _, r := range m.Regions {
		if r == m.Region {
			return nil
		}
	}
	return fmt.Errorf("unsupported region %s for service %s", m.Region, m.Name)
}

// Verify runs every semantic check on a built manifest.
// Assumes implicit defaults have been applied by the build pipeline.
func (m *Manifest) Verify(params VerifyParams) error {
	// 63 is the kube dns limit, 50 leaves a suffix buffer
	if !serviceNameRe.MatchString(m.Name) {
		return fmt.Errorf("%q: use short, lower case service names with dashes", m.Name)
	}
	if strings.HasPrefix(m.Name, "-") || strings.HasSuffix(m.Name, "-") {
		return fmt.Errorf("%q: use dashes to separate words only", m.Name)
	}
	if err := m.VerifyRegion(); err != nil {
		return err
	}

	if m.Metadata == nil {
		return fmt.Errorf("missing metadata for %s", m.Name)
	}
	if err := m.Metadata.Verify(); err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	if len(params.AllowedTeams) > 0 && m.Metadata.Team != "" {
		var found bool
		for _, t := range params.AllowedTeams {
			if t == m.Metadata.Team {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: team %q not present in the owners config", m.Name, m.Metadata.Team)
		}
	}

	if m.External {
		// reference-only service, nothing below applies
		return nil
	}

	if m.Resources == nil {
		return fmt.Errorf("%s: resources is mandatory", m.Name)
	}
	if err := m.Resources.Verify(); err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}

	if m.ReplicaCount == 0 {
		return fmt.Errorf("%s: need replicaCount to be at least 1", m.Name)
	}
	if m.RollingUpdate != nil {
		if err := m.RollingUpdate.Verify(m.ReplicaCount); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	if m.AutoScaling != nil {
		if err := m.AutoScaling.Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}

	if err := m.Env.Verify(); err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	for i := range m.Ports {
		if err := m.Ports[i].Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	for i := range m.Dependencies {
		if err := m.Dependencies[i].Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	if m.Configs != nil {
		if err := m.Configs.Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	if m.Sentry != nil {
		if err := m.Sentry.Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	for i := range m.Sidecars {
		if err := m.Sidecars[i].Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	for i := range m.InitContainers {
		if err := m.InitContainers[i].Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	for i := range m.Workers {
		if err := m.Workers[i].Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	for i := range m.Jobs {
		if err := m.Jobs[i].Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	for i := range m.CronJobs {
		if err := m.CronJobs[i].Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	if m.ReadinessProbe != nil {
		if err := m.ReadinessProbe.Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	if m.LivenessProbe != nil {
		if err := m.LivenessProbe.Verify(); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}

	if len(params.AllowedLabels) > 0 {
		for k := range m.Labels {
			var found bool
			for _, a := range params.AllowedLabels {
				if a == k {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("service %s using label %s not defined in config", m.Name, k)
			}
		}
	}

	// populated by implicits, absence is an internal error
	if m.Image == "" {
		return fmt.Errorf("%s: image should be set at this point", m.Name)
	}
	if m.Chart == "" {
		return fmt.Errorf("%s: chart must be set at this point", m.Name)
	}
	if m.Namespace == "" {
		return fmt.Errorf("%s: namespace must be set at this point", m.Name)
	}
	if m.Environment == "" {
		return fmt.Errorf("%s: environment must be set at this point", m.Name)
	}
	if len(m.Regions) == 0 {
		return fmt.Errorf("no regions specified for %s", m.Name)
	}
	return nil
}

// VaultPath is the secret folder for this service within a region folder.
// A vault override lets a service read another service's secrets.
func (m *Manifest) VaultPath(folder string) string {
	svc := m.Name
	if m.Vault != nil && m.Vault.Name != "" {
		svc = m.Vault.Name
	}
	return fmt.Sprintf("%s/%s", folder, svc)
}

// GetEnvVars returns the env maps of the main container and every
// auxiliary workload, for secret scanning and region templating.
func (m *Manifest) GetEnvVars() []EnvVars {
	envs := []EnvVars{m.Env}
	for i := range m.Sidecars {
		envs = append(envs, m.Sidecars[i].Env)
	}
	for i := range m.Workers {
		envs = append(envs, m.Workers[i].Env)
	}
	for i := range m.InitContainers {
		envs = append(envs, m.InitContainers[i].Env)
	}
	for i := range m.Jobs {
		envs = append(envs, m.Jobs[i].Env)
	}
	for i := range m.CronJobs {
		envs = append(envs, m.CronJobs[i].Env)
	}
	return envs
}

// ToYAML serializes the manifest as a helm values document.
func (m *Manifest) ToYAML() ([]byte, error) {
	return yaml.Marshal(m)
}
