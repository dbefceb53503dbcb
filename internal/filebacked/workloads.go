// Where: cli/internal/filebacked/workloads.go
// What: Job, cron job, and worker fragments.
// Why: Auxiliary workloads extend the container fragment with scheduling
// and replication fields, and enforce image/version pairing.
package filebacked

import (
	"fmt"

	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/merge"
)

func verifyImageVersionPair(c *manifest.Container, kind string) error {
	if c.Image != nil && c.Version == nil {
		return fmt.Errorf("cannot specify image without specifying version in %s", kind)
	}
	if c.Image == nil && c.Version != nil {
		return fmt.Errorf("cannot specify the version without specifying an image in %s", kind)
	}
	return nil
}

// JobSource is a one-shot workload fragment.
type JobSource struct {
	VolumeClaim   *manifest.JobVolumeClaim `yaml:"volumeClaim"`
	Timeout       *uint32                  `yaml:"timeout"`
	BackoffLimit  *uint16                  `yaml:"backoffLimit"`
	RestartPolicy *manifest.RestartPolicy  `yaml:"restartPolicy"`

	ContainerSource `yaml:",inline"`
}

func (j JobSource) Merge(other JobSource) JobSource {
	return JobSource{
		VolumeClaim:     merge.Option(j.VolumeClaim, other.VolumeClaim),
		Timeout:         merge.Option(j.Timeout, other.Timeout),
		BackoffLimit:    merge.Option(j.BackoffLimit, other.BackoffLimit),
		RestartPolicy:   merge.Option(j.RestartPolicy, other.RestartPolicy),
		ContainerSource: j.ContainerSource.Merge(other.ContainerSource),
	}
}

func (j JobSource) Build(params ContainerBuildParams) (manifest.Job, error) {
	container, err := j.ContainerSource.Build(params)
	if err != nil {
		return manifest.Job{}, err
	}
	if err := verifyImageVersionPair(&container, "Job"); err != nil {
		return manifest.Job{}, err
	}
	restart := manifest.RestartNever
	if j.RestartPolicy != nil {
		restart = *j.RestartPolicy
	}
	return manifest.Job{
		Container:     container,
		VolumeClaim:   j.VolumeClaim,
		Timeout:       j.Timeout,
		BackoffLimit:  j.BackoffLimit,
		RestartPolicy: restart,
	}, nil
}

// CronJobSource is a scheduled workload fragment.
type CronJobSource struct {
	Schedule     *string                  `yaml:"schedule"`
	VolumeClaim  *manifest.JobVolumeClaim `yaml:"volumeClaim"`
	Timeout      *uint32                  `yaml:"timeout"`
	BackoffLimit *uint16                  `yaml:"backoffLimit"`

	ContainerSource `yaml:",inline"`
}

func (c CronJobSource) Merge(other CronJobSource) CronJobSource {
	return CronJobSource{
		Schedule:        merge.Option(c.Schedule, other.Schedule),
		VolumeClaim:     merge.Option(c.VolumeClaim, other.VolumeClaim),
		Timeout:         merge.Option(c.Timeout, other.Timeout),
		BackoffLimit:    merge.Option(c.BackoffLimit, other.BackoffLimit),
		ContainerSource: c.ContainerSource.Merge(other.ContainerSource),
	}
}

func (c CronJobSource) Build(params ContainerBuildParams) (manifest.CronJob, error) {
	container, err := c.ContainerSource.Build(params)
	if err != nil {
		return manifest.CronJob{}, err
	}
	if err := verifyImageVersionPair(&container, "CronJob"); err != nil {
		return manifest.CronJob{}, err
	}
	schedule, err := Require(c.Schedule, "schedule")
	if err != nil {
		return manifest.CronJob{}, err
	}
	return manifest.CronJob{
		Container:    container,
		Schedule:     schedule,
		VolumeClaim:  c.VolumeClaim,
		Timeout:      c.Timeout,
		BackoffLimit: c.BackoffLimit,
	}, nil
}

// WorkerSource is a sibling deployment fragment.
type WorkerSource struct {
	ReplicaCount   *uint32                  `yaml:"replicaCount"`
	AutoScaling    *manifest.AutoScaling    `yaml:"autoScaling"`
	HTTPPort       *uint32                  `yaml:"httpPort"`
	PodAnnotations map[string]RelaxedString `yaml:"podAnnotations"`

	ContainerSource `yaml:",inline"`
}

func (w WorkerSource) Merge(other WorkerSource) WorkerSource {
	return WorkerSource{
		ReplicaCount:    merge.Option(w.ReplicaCount, other.ReplicaCount),
		AutoScaling:     merge.Option(w.AutoScaling, other.AutoScaling),
		HTTPPort:        merge.Option(w.HTTPPort, other.HTTPPort),
		PodAnnotations:  merge.Map(w.PodAnnotations, other.PodAnnotations),
		ContainerSource: w.ContainerSource.Merge(other.ContainerSource),
	}
}

func (w WorkerSource) Build(params ContainerBuildParams) (manifest.Worker, error) {
	if w.AutoScaling != nil {
		if err := w.AutoScaling.Verify(); err != nil {
			return manifest.Worker{}, err
		}
	}
	container, err := w.ContainerSource.Build(params)
	if err != nil {
		return manifest.Worker{}, err
	}
	replicas, err := Require(w.ReplicaCount, "replicaCount")
	if err != nil {
		return manifest.Worker{}, err
	}
	annotations := map[string]string{}
	for k, v := range w.PodAnnotations {
		annotations[k] = v.String()
	}
	if len(annotations) == 0 {
		annotations = nil
	}
	return manifest.Worker{
		Container:      container,
		Replicas:       replicas,
		AutoScaling:    w.AutoScaling,
		HTTPPort:       w.HTTPPort,
		PodAnnotations: annotations,
	}, nil
}
