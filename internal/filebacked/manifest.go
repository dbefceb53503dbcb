// Where: cli/internal/filebacked/manifest.go
// What: The manifest fragment layers and the build pipeline.
// Why: Turns cascaded, partially specified yaml layers into one strict
// manifest, applying defaults and implicits before validation.
package filebacked

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/merge"
	"github.com/clux/shipcat/internal/meta"
)

const defaultImageSizeMB = 512

// MetadataSource is the ownership fragment of shipcat.yml.
type MetadataSource struct {
	Repo           string             `yaml:"repo"`
	Team           string             `yaml:"team"`
	GitTagTemplate string             `yaml:"gitTagTemplate"`
	Contacts       []manifest.Contact `yaml:"contacts"`
	Support        *string            `yaml:"support"`
	Notifications  *string            `yaml:"notifications"`
	Runbook        *string            `yaml:"runbook"`
	Description    *string            `yaml:"description"`
	Docs           *string            `yaml:"docs"`
}

// Build resolves team ownership against the owners config, inheriting
// the squad's slack channels when the manifest does not set its own.
func (m MetadataSource) Build(name string, conf *config.Config) (manifest.Metadata, error) {
	squad, ok := conf.Owners.Squads[m.Team]
	if !ok {
		return manifest.Metadata{}, fmt.Errorf("%s: metadata.team %q must match a squad in the owners config", name, m.Team)
	}

	support := m.Support
	if support == nil && squad.Support != "" {
		s := squad.Support
		support = &s
	}
	notifications := m.Notifications
	if notifications == nil && squad.Notifications != "" {
		n := squad.Notifications
		notifications = &n
	}
	if support == nil || notifications == nil {
		return manifest.Metadata{}, fmt.Errorf("need a notification and support channel for %s", m.Team)
	}

	md := manifest.Metadata{
		Repo:           m.Repo,
		Team:           m.Team,
		Squad:          &squad.Name,
		GitTagTemplate: m.GitTagTemplate,
		Contacts:       m.Contacts,
		Support:        (*manifest.SlackChannel)(support),
		Notifications:  (*manifest.SlackChannel)(notifications),
		Runbook:        m.Runbook,
		Description:    m.Description,
		Docs:           m.Docs,
	}
	if squad.Tribe != "" {
		tribe := squad.Tribe
		md.Tribe = &tribe
	}
	if err := md.Verify(); err != nil {
		return manifest.Metadata{}, fmt.Errorf("%s: %w", name, err)
	}
	return md, nil
}

// ManifestDefaults are the lowest precedence layer, sourced from
// shipcat.conf global defaults and the region.
type ManifestDefaults struct {
	ImagePrefix  *string `yaml:"imagePrefix"`
	Chart        *string `yaml:"chart"`
	ReplicaCount *uint32 `yaml:"replicaCount"`

	Env  EnvVarsSource       `yaml:"env"`
	Kong Enabled[KongSource] `yaml:"kong"`
}

func (d ManifestDefaults) Merge(other ManifestDefaults) ManifestDefaults {
	return ManifestDefaults{
		ImagePrefix:  merge.Option(d.ImagePrefix, other.ImagePrefix),
		Chart:        merge.Option(d.Chart, other.Chart),
		ReplicaCount: merge.Option(d.ReplicaCount, other.ReplicaCount),
		Env:          d.Env.Merge(other.Env),
		Kong:         d.Kong.Merge(other.Kong),
	}
}

// ManifestOverrides are the mergeable properties of a service manifest,
// deserialized from shipcat.yml as well as its env and region siblings.
type ManifestOverrides struct {
	PubliclyAccessible *bool `yaml:"publiclyAccessible"`

	Image     *string `yaml:"image"`
	ImageSize *uint32 `yaml:"imageSize"`
	Version   *string `yaml:"version"`

	Command []string `yaml:"command"`

	Resources *ResourceRequirementsSource `yaml:"resources"`

	SecretFiles map[string]string   `yaml:"secretFiles"`
	Configs     *manifest.ConfigMap `yaml:"configs"`
	Vault       *manifest.VaultOpts `yaml:"vault"`

	HTTPPort     *uint32      `yaml:"httpPort"`
	Ports        []PortSource `yaml:"ports"`
	ExternalPort *uint32      `yaml:"externalPort"`

	Health         *manifest.HealthCheck `yaml:"health"`
	ReadinessProbe *manifest.Probe       `yaml:"readinessProbe"`
	LivenessProbe  *manifest.Probe       `yaml:"livenessProbe"`

	Dependencies []manifest.Dependency `yaml:"dependencies"`

	Workers        []WorkerSource        `yaml:"workers"`
	Sidecars       []SidecarSource       `yaml:"sidecars"`
	InitContainers []InitContainerSource `yaml:"initContainers"`
	Jobs           []JobSource           `yaml:"jobs"`
	CronJobs       []CronJobSource       `yaml:"cronJobs"`

	RollingUpdate *manifest.RollingUpdate `yaml:"rollingUpdate"`
	AutoScaling   *manifest.AutoScaling   `yaml:"autoScaling"`

	Volumes      []manifest.Volume      `yaml:"volumes"`
	VolumeMounts []manifest.VolumeMount `yaml:"volumeMounts"`

	ServiceAnnotations map[string]string        `yaml:"serviceAnnotations"`
	PodAnnotations     map[string]RelaxedString `yaml:"podAnnotations"`
	Labels             map[string]RelaxedString `yaml:"labels"`

	Kafka        *manifest.Kafka `yaml:"kafka"`
	SourceRanges []string        `yaml:"sourceRanges"`
	Sentry       *SentrySource   `yaml:"sentry"`

	Defaults ManifestDefaults `yaml:",inline"`
}

func (o ManifestOverrides) Merge(other ManifestOverrides) ManifestOverrides {
	return ManifestOverrides{
		PubliclyAccessible: merge.Option(o.PubliclyAccessible, other.PubliclyAccessible),
		Image:              merge.Option(o.Image, other.Image),
		ImageSize:          merge.Option(o.ImageSize, other.ImageSize),
		Version:            merge.Option(o.Version, other.Version),
		Command:            merge.Slice(o.Command, other.Command),
		Resources:          merge.Option(o.Resources, other.Resources),
		SecretFiles:        merge.Map(o.SecretFiles, other.SecretFiles),
		Configs:            merge.Option(o.Configs, other.Configs),
		Vault:              merge.Option(o.Vault, other.Vault),
		HTTPPort:           merge.Option(o.HTTPPort, other.HTTPPort),
		Ports:              merge.Slice(o.Ports, other.Ports),
		ExternalPort:       merge.Option(o.ExternalPort, other.ExternalPort),
		Health:             merge.Option(o.Health, other.Health),
		ReadinessProbe:     merge.Option(o.ReadinessProbe, other.ReadinessProbe),
		LivenessProbe:      merge.Option(o.LivenessProbe, other.LivenessProbe),
		Dependencies:       merge.Slice(o.Dependencies, other.Dependencies),
		Workers:            merge.Slice(o.Workers, other.Workers),
		Sidecars:           merge.Slice(o.Sidecars, other.Sidecars),
		InitContainers:     merge.Slice(o.InitContainers, other.InitContainers),
		Jobs:               merge.Slice(o.Jobs, other.Jobs),
		CronJobs:           merge.Slice(o.CronJobs, other.CronJobs),
		RollingUpdate:      merge.Option(o.RollingUpdate, other.RollingUpdate),
		AutoScaling:        merge.Option(o.AutoScaling, other.AutoScaling),
		Volumes:            merge.Slice(o.Volumes, other.Volumes),
		VolumeMounts:       merge.Slice(o.VolumeMounts, other.VolumeMounts),
		ServiceAnnotations: merge.Map(o.ServiceAnnotations, other.ServiceAnnotations),
		PodAnnotations:     merge.Map(o.PodAnnotations, other.PodAnnotations),
		Labels:             merge.Map(o.Labels, other.Labels),
		Kafka:              merge.Option(o.Kafka, other.Kafka),
		SourceRanges:       merge.Slice(o.SourceRanges, other.SourceRanges),
		Sentry:             merge.Option(o.Sentry, other.Sentry),
		Defaults:           o.Defaults.Merge(other.Defaults),
	}
}

// ManifestSource is the root fragment deserialized from shipcat.yml.
// The non-mergeable identity fields only exist here; everything else
// lives in the inlined overrides.
type ManifestSource struct {
	Name     *string         `yaml:"name"`
	External bool            `yaml:"external"`
	Disabled bool            `yaml:"disabled"`
	Regions  []string        `yaml:"regions"`
	Metadata *MetadataSource `yaml:"metadata"`

	Overrides ManifestOverrides `yaml:",inline"`
}

// MergeOverrides folds a higher precedence override layer into the source.
func (s ManifestSource) MergeOverrides(other ManifestOverrides) ManifestSource {
	s.Overrides = s.Overrides.Merge(other)
	return s
}

// MergeDefaults seeds the source with a lower precedence defaults layer.
func (s ManifestSource) MergeDefaults(defaults ManifestDefaults) ManifestSource {
	s.Overrides.Defaults = defaults.Merge(s.Overrides.Defaults)
	return s
}

// BuildBase resolves the region-independent identity of the service.
func (s *ManifestSource) BuildBase(conf *config.Config) (BaseManifest, error) {
	name, err := Require(s.Name, "name")
	if err != nil {
		return BaseManifest{}, err
	}
	if s.Metadata == nil {
		return BaseManifest{}, fmt.Errorf("%s: metadata is required", name)
	}
	md, err := s.Metadata.Build(name, conf)
	if err != nil {
		return BaseManifest{}, err
	}
	return BaseManifest{Name: name, Regions: s.Regions, Metadata: md}, nil
}

// BuildSimple resolves the region-specific summary without reading any
// template files or secrets.
func (s *ManifestSource) BuildSimple(conf *config.Config, region *config.Region) (SimpleManifest, error) {
	base, err := s.BuildBase(conf)
	if err != nil {
		return SimpleManifest{}, err
	}

	image, err := s.buildImage(base.Name)
	if err != nil {
		return SimpleManifest{}, err
	}

	var version *string
	if s.Overrides.Version != nil {
		tag, err := buildImageTag(*s.Overrides.Version)
		if err != nil {
			return SimpleManifest{}, err
		}
		version = &tag
	}

	var kongAPIs []manifest.Kong
	// kong entries are dropped in regions without a gateway
	if region.Kong != nil && !s.Overrides.Defaults.Kong.IsDisabled() {
		api, err := s.Overrides.Defaults.Kong.Item.Build(base.Name, region)
		if err != nil {
			return SimpleManifest{}, fmt.Errorf("%s: %w", base.Name, err)
		}
		if api != nil {
			kongAPIs = append(kongAPIs, *api)
		}
	}

	enabled := !s.Disabled
	if enabled {
		enabled = false
		for _, r := range base.Regions {
			if r == region.Name {
				enabled = true
				break
			}
		}
	}

	return SimpleManifest{
		Base:     base,
		Region:   region.Name,
		Enabled:  enabled,
		External: s.External,
		Image:    image,
		Version:  version,
		KongAPIs: kongAPIs,
	}, nil
}

// Build resolves the merged source into a full Base-state manifest.
// Root is the manifests repository root, used to load config templates.
func (s *ManifestSource) Build(conf *config.Config, region *config.Region, root string) (*manifest.Manifest, error) {
	simple, err := s.BuildSimple(conf, region)
	if err != nil {
		return nil, err
	}
	name := simple.Base.Name

	overrides := s.Overrides
	defaults := overrides.Defaults

	containerParams := ContainerBuildParams{MainEnvs: defaults.Env}

	chart, err := Require(defaults.Chart, "chart")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	replicas, err := Require(defaults.ReplicaCount, "replicaCount")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	env, err := defaults.Env.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var resources *manifest.ResourceRequirements[string]
	if overrides.Resources != nil {
		built, err := overrides.Resources.Build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		resources = &built
	}

	ports, err := buildPorts(overrides.Ports)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	workers := make([]manifest.Worker, 0, len(overrides.Workers))
	for _, src := range overrides.Workers {
		w, err := src.Build(containerParams)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		workers = append(workers, w)
	}
	sidecars := make([]manifest.Container, 0, len(overrides.Sidecars))
	for _, src := range overrides.Sidecars {
		c, err := src.ContainerSource.Build(containerParams)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		sidecars = append(sidecars, c)
	}
	initContainers := make([]manifest.Container, 0, len(overrides.InitContainers))
	for _, src := range overrides.InitContainers {
		c, err := src.Build(containerParams)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		initContainers = append(initContainers, c)
	}
	jobs := make([]manifest.Job, 0, len(overrides.Jobs))
	for _, src := range overrides.Jobs {
		j, err := src.Build(containerParams)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		jobs = append(jobs, j)
	}
	cronJobs := make([]manifest.CronJob, 0, len(overrides.CronJobs))
	for _, src := range overrides.CronJobs {
		c, err := src.Build(containerParams)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		cronJobs = append(cronJobs, c)
	}

	var sentry *manifest.Sentry
	if overrides.Sentry != nil {
		channel := string(*simple.Base.Metadata.Notifications)
		sentry, err = overrides.Sentry.Build(channel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	configs, err := s.buildConfigs(name, root)
	if err != nil {
		return nil, err
	}

	imageSize := uint32(defaultImageSizeMB)
	if overrides.ImageSize != nil {
		imageSize = *overrides.ImageSize
	}

	version := ""
	if simple.Version != nil {
		version = *simple.Version
	}

	md := simple.Base.Metadata
	m := &manifest.Manifest{
		Name:      name,
		External:  simple.External,
		Disabled:  s.Disabled,
		Regions:   simple.Base.Regions,
		Metadata:  &md,
		Chart:     chart,
		Image:     simple.Image,
		ImageSize: imageSize,
		Version:   version,

		Command:      overrides.Command,
		Resources:    resources,
		ReplicaCount: replicas,
		Env:          env,
		SecretFiles:  overrides.SecretFiles,
		Configs:      configs,
		Vault:        overrides.Vault,

		HTTPPort:     overrides.HTTPPort,
		ExternalPort: overrides.ExternalPort,
		Ports:        ports,

		Health:         overrides.Health,
		ReadinessProbe: overrides.ReadinessProbe,
		LivenessProbe:  overrides.LivenessProbe,

		Dependencies: overrides.Dependencies,

		Workers:        workers,
		Sidecars:       sidecars,
		InitContainers: initContainers,
		Jobs:           jobs,
		CronJobs:       cronJobs,

		RollingUpdate: overrides.RollingUpdate,
		AutoScaling:   overrides.AutoScaling,

		Volumes:      overrides.Volumes,
		VolumeMounts: overrides.VolumeMounts,

		ServiceAnnotations: overrides.ServiceAnnotations,
		PodAnnotations:     buildStringMap(overrides.PodAnnotations),
		Labels:             buildStringMap(overrides.Labels),

		KongAPIs:     simple.KongAPIs,
		Kafka:        s.buildKafka(region),
		Sentry:       sentry,
		SourceRanges: overrides.SourceRanges,

		Region:      region.Name,
		Environment: region.Environment,
		Namespace:   region.Namespace,

		State: manifest.StateBase,
	}
	if overrides.PubliclyAccessible != nil {
		m.PubliclyAccessible = *overrides.PubliclyAccessible
	}
	return m, nil
}

// buildImage defaults the image from the configured prefix and the
// service name when the manifest does not name one.
func (s *ManifestSource) buildImage(service string) (string, error) {
	if s.Overrides.Image != nil {
		return buildImageName(*s.Overrides.Image)
	}
	if prefix := s.Overrides.Defaults.ImagePrefix; prefix != nil && *prefix != "" {
		if strings.HasSuffix(*prefix, "/") {
			return "", fmt.Errorf("image prefix must not end with a slash")
		}
		return fmt.Sprintf("%s/%s", *prefix, service), nil
	}
	return "", fmt.Errorf("image prefix is not defined")
}

// buildKafka appends the region's brokers to a kafka-enabled service.
func (s *ManifestSource) buildKafka(region *config.Region) *manifest.Kafka {
	if s.Overrides.Kafka == nil {
		return nil
	}
	kf := *s.Overrides.Kafka
	if region.Kafka != nil {
		kf.Brokers = append(kf.Brokers, region.Kafka.Brokers...)
	}
	return &kf
}

// buildConfigs inlines the content of each mounted template file,
// preferring the service folder over the shared templates folder.
func (s *ManifestSource) buildConfigs(service, root string) (*manifest.ConfigMap, error) {
	if s.Overrides.Configs == nil {
		return nil, nil
	}
	configs := *s.Overrides.Configs
	files := make([]manifest.ConfigMappedFile, len(configs.Files))
	copy(files, configs.Files)
	for i := range files {
		data, err := readTemplateFile(root, service, files[i].Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", service, err)
		}
		files[i].Value = data
	}
	configs.Files = files
	return &configs, nil
}

func readTemplateFile(root, service, name string) (string, error) {
	svcPath := filepath.Join(root, meta.ServicesDir, service, name)
	if data, err := os.ReadFile(svcPath); err == nil {
		return string(data), nil
	}
	sharedPath := filepath.Join(root, meta.TemplatesDir, name)
	data, err := os.ReadFile(sharedPath)
	if err != nil {
		return "", fmt.Errorf("template %s does not exist in neither %s nor %s", name, svcPath, sharedPath)
	}
	return string(data), nil
}

func buildStringMap(in map[string]RelaxedString) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v.String()
	}
	return out
}
