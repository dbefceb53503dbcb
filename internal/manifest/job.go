// Where: cli/internal/manifest/job.go
// What: Job, CronJob and Worker workload types.
// Why: Auxiliary workloads run alongside the main deployment from the same image.
package manifest

import "fmt"

// RestartPolicy for job pods.
type RestartPolicy string

const (
	RestartNever     RestartPolicy = "Never"
	RestartOnFailure RestartPolicy = "OnFailure"
)

func (r RestartPolicy) Verify() error {
	switch r {
	case "", RestartNever, RestartOnFailure:
		return nil
	}
	return fmt.Errorf("restartPolicy must be Never or OnFailure, got %q", r)
}

// JobVolumeClaim requests scratch space for a job pod.
type JobVolumeClaim struct {
	Size      string `yaml:"size" json:"size"`
	MountPath string `yaml:"mountPath" json:"mountPath"`
}

// Job is a one-shot workload sharing the service image.
type Job struct {
	Container `yaml:",inline" json:",inline"`

	VolumeClaim   *JobVolumeClaim `yaml:"volumeClaim,omitempty" json:"volumeClaim,omitempty"`
	Timeout       *uint32         `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	BackoffLimit  *uint16         `yaml:"backoffLimit,omitempty" json:"backoffLimit,omitempty"`
	RestartPolicy RestartPolicy   `yaml:"restartPolicy,omitempty" json:"restartPolicy,omitempty"`
}

func (j *Job) Verify() error {
	if err := j.Container.Verify(); err != nil {
		return err
	}
	return j.RestartPolicy.Verify()
}

// CronJob is a scheduled workload sharing the service image.
type CronJob struct {
	Container `yaml:",inline" json:",inline"`

	Schedule      string          `yaml:"schedule" json:"schedule"`
	VolumeClaim   *JobVolumeClaim `yaml:"volumeClaim,omitempty" json:"volumeClaim,omitempty"`
	Timeout       *uint32         `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	BackoffLimit  *uint16         `yaml:"backoffLimit,omitempty" json:"backoffLimit,omitempty"`
	RestartPolicy RestartPolicy   `yaml:"restartPolicy,omitempty" json:"restartPolicy,omitempty"`
}

func (c *CronJob) Verify() error {
	if c.Schedule == "" {
		return fmt.Errorf("cronjob %s needs a schedule", c.Name)
	}
	if err := c.Container.Verify(); err != nil {
		return err
	}
	return c.RestartPolicy.Verify()
}

// Worker is a long-running sibling deployment of the main service.
type Worker struct {
	Container `yaml:",inline" json:",inline"`

	Replicas    uint32       `yaml:"replicas" json:"replicas"`
	AutoScaling *AutoScaling `yaml:"autoScaling,omitempty" json:"autoScaling,omitempty"`
	HTTPPort    *uint32      `yaml:"httpPort,omitempty" json:"httpPort,omitempty"`
	// PodAnnotations applied to this worker's pods only.
	PodAnnotations map[string]string `yaml:"podAnnotations,omitempty" json:"podAnnotations,omitempty"`
}

func (w *Worker) Verify() error {
	if err := w.Container.Verify(); err != nil {
		return err
	}
	if w.AutoScaling != nil {
		if err := w.AutoScaling.Verify(); err != nil {
			return err
		}
	}
	return nil
}
