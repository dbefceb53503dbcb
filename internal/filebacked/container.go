// Where: cli/internal/filebacked/container.go
// What: Container fragments and the shared container build path.
// Why: The main deployment, sidecars, init containers, workers, and jobs
// all resolve through the same container shape.
package filebacked

import (
	"fmt"
	"regexp"

	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/merge"
)

var (
	containerNameRe = regexp.MustCompile(`^[0-9a-z\-]{1,50}$`)
	// docker image name: optional registry host (with port), then
	// slash separated lowercase name components
	imageNameRe = regexp.MustCompile(`^([^:/_]+(:\d+)?/)?([a-z\d._-]+/)*[a-z\d._-]+$`)
	// docker tag: ascii alphanumerics, underscores, periods and dashes,
	// not starting with a period or dash, at most 128 characters
	imageTagRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]{0,127}$`)
)

func buildContainerName(name string) (string, error) {
	if !containerNameRe.MatchString(name) {
		return "", fmt.Errorf("name must be alphanumeric (with dashes) and 1-50 characters")
	}
	return name, nil
}

func buildImageName(image string) (string, error) {
	if !imageNameRe.MatchString(image) {
		return "", fmt.Errorf("the image %s does not match a valid image repository", image)
	}
	return image, nil
}

func buildImageTag(tag string) (string, error) {
	if !imageTagRe.MatchString(tag) {
		return "", fmt.Errorf("the tag %s is not a valid Docker image tag", tag)
	}
	return tag, nil
}

// ContainerBuildParams is the side channel context for nested containers.
type ContainerBuildParams struct {
	// MainEnvs is the root service env, inherited when preserveEnv is set.
	MainEnvs EnvVarsSource
}

// ContainerSource is the partially specified container fragment.
type ContainerSource struct {
	Name    *string `yaml:"name"`
	Image   *string `yaml:"image"`
	Version *string `yaml:"version"`

	Resources *ResourceRequirementsSource `yaml:"resources"`

	Command []string      `yaml:"command"`
	Env     EnvVarsSource `yaml:"env"`
	// PreserveEnv inherits the root service env under local values.
	PreserveEnv *bool `yaml:"preserveEnv"`

	ReadinessProbe *manifest.Probe `yaml:"readinessProbe"`
	LivenessProbe  *manifest.Probe `yaml:"livenessProbe"`

	Ports []PortSource `yaml:"ports"`

	VolumeMounts []manifest.VolumeMount `yaml:"volumeMounts"`
}

func (c ContainerSource) Merge(other ContainerSource) ContainerSource {
	return ContainerSource{
		Name:           merge.Option(c.Name, other.Name),
		Image:          merge.Option(c.Image, other.Image),
		Version:        merge.Option(c.Version, other.Version),
		Resources:      merge.Option(c.Resources, other.Resources),
		Command:        merge.Slice(c.Command, other.Command),
		Env:            c.Env.Merge(other.Env),
		PreserveEnv:    merge.Option(c.PreserveEnv, other.PreserveEnv),
		ReadinessProbe: merge.Option(c.ReadinessProbe, other.ReadinessProbe),
		LivenessProbe:  merge.Option(c.LivenessProbe, other.LivenessProbe),
		Ports:          merge.Slice(c.Ports, other.Ports),
		VolumeMounts:   merge.Slice(c.VolumeMounts, other.VolumeMounts),
	}
}

// Build resolves the fragment into a strict container.
func (c ContainerSource) Build(params ContainerBuildParams) (manifest.Container, error) {
	env := c.Env
	if c.PreserveEnv != nil && *c.PreserveEnv {
		env = params.MainEnvs.Merge(c.Env)
	}

	name, err := Require(c.Name, "name")
	if err != nil {
		return manifest.Container{}, err
	}
	if name, err = buildContainerName(name); err != nil {
		return manifest.Container{}, err
	}

	var image, version *string
	if c.Image != nil {
		built, err := buildImageName(*c.Image)
		if err != nil {
			return manifest.Container{}, err
		}
		image = &built
	}
	if c.Version != nil {
		built, err := buildImageTag(*c.Version)
		if err != nil {
			return manifest.Container{}, err
		}
		version = &built
	}

	var resources *manifest.ResourceRequirements[string]
	if c.Resources != nil {
		built, err := c.Resources.Build()
		if err != nil {
			return manifest.Container{}, err
		}
		resources = &built
	}

	builtEnv, err := env.Build()
	if err != nil {
		return manifest.Container{}, err
	}

	ports, err := buildPorts(c.Ports)
	if err != nil {
		return manifest.Container{}, err
	}

	if c.ReadinessProbe != nil {
		if err := c.ReadinessProbe.Verify(); err != nil {
			return manifest.Container{}, err
		}
	}
	if c.LivenessProbe != nil {
		if err := c.LivenessProbe.Verify(); err != nil {
			return manifest.Container{}, err
		}
	}

	return manifest.Container{
		Name:           name,
		Image:          image,
		Version:        version,
		Resources:      resources,
		Command:        c.Command,
		Env:            builtEnv,
		ReadinessProbe: c.ReadinessProbe,
		LivenessProbe:  c.LivenessProbe,
		Ports:          ports,
		VolumeMounts:   c.VolumeMounts,
	}, nil
}

// SidecarSource is a plain container injected next to the main one.
type SidecarSource struct {
	ContainerSource `yaml:",inline"`
}

func (s SidecarSource) Merge(other SidecarSource) SidecarSource {
	return SidecarSource{ContainerSource: s.ContainerSource.Merge(other.ContainerSource)}
}

// InitContainerSource is a container run before the main pod boots.
// Unlike sidecars, an image is mandatory.
type InitContainerSource struct {
	ContainerSource `yaml:",inline"`
}

func (i InitContainerSource) Merge(other InitContainerSource) InitContainerSource {
	return InitContainerSource{ContainerSource: i.ContainerSource.Merge(other.ContainerSource)}
}

func (i InitContainerSource) Build(params ContainerBuildParams) (manifest.Container, error) {
	container, err := i.ContainerSource.Build(params)
	if err != nil {
		return manifest.Container{}, err
	}
	if container.Image == nil {
		return manifest.Container{}, fmt.Errorf("image is required")
	}
	return container, nil
}
