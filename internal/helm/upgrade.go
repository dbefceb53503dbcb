// Where: cli/internal/helm/upgrade.go
// What: Helm release operations derived from a built manifest.
// Why: One UpgradeData struct carries everything a helm invocation
// needs, so modes only differ in the flag set.
package helm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clux/shipcat/internal/manifest"
)

// UpgradeMode selects the helm operation for a release.
type UpgradeMode int

const (
	// DiffOnly renders and diffs without touching the release.
	DiffOnly UpgradeMode = iota
	// UpgradeWait upgrades and waits for rollout completion.
	UpgradeWait
	// UpgradeNoWait fires the upgrade without waiting.
	UpgradeNoWait
	// UpgradeInstall upgrades, installing the release if missing.
	UpgradeInstall
	// UpgradeRecreate forces pod recreation during the upgrade.
	UpgradeRecreate
)

func (m UpgradeMode) String() string {
	switch m {
	case DiffOnly:
		return "diff"
	case UpgradeWait:
		return "upgrade"
	case UpgradeNoWait:
		return "upgrade (no wait)"
	case UpgradeInstall:
		return "install"
	case UpgradeRecreate:
		return "recreate"
	}
	return "unknown"
}

// UpgradeData is the resolved input for one helm operation.
type UpgradeData struct {
	Name       string
	Chart      string
	Version    string
	Region     string
	Namespace  string
	ValuesPath string
	Mode       UpgradeMode

	// WaitSeconds for rollout completion, derived from the manifest.
	WaitSeconds uint32
}

// NewUpgradeData derives the helm inputs from a completed manifest.
func NewUpgradeData(m *manifest.Manifest, valuesPath string, mode UpgradeMode) (UpgradeData, error) {
	if m.Version == "" {
		return UpgradeData{}, fmt.Errorf("%s: cannot upgrade without a version", m.Name)
	}
	return UpgradeData{
		Name:        m.Name,
		Chart:       m.Chart,
		Version:     m.Version,
		Region:      m.Region,
		Namespace:   m.Namespace,
		ValuesPath:  valuesPath,
		Mode:        mode,
		WaitSeconds: m.EstimateWaitTime(),
	}, nil
}

func chartPath(chart string) string {
	return filepath.Join("charts", chart)
}

// Template renders the chart locally with the generated values.
func Template(ctx context.Context, r CommandRunner, u UpgradeData) (string, error) {
	return r.Run(ctx, "helm", "template", chartPath(u.Chart), "-f", u.ValuesPath)
}

// Diff templates the chart and diffs the result against the cluster.
// kubectl diff exits nonzero when drift exists, so the diff output is
// returned alongside the error for the caller to decide.
func Diff(ctx context.Context, r CommandRunner, u UpgradeData) (string, error) {
	rendered, err := Template(ctx, r, u)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", u.Name+"-*.yml")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(rendered); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return r.Run(ctx, "kubectl", "diff", "-n", u.Namespace, "-f", tmp.Name())
}

// Upgrade runs the helm operation selected by the mode.
func Upgrade(ctx context.Context, r CommandRunner, u UpgradeData) (string, error) {
	if u.Mode == DiffOnly {
		return Diff(ctx, r, u)
	}
	args := []string{
		"upgrade", u.Name, chartPath(u.Chart),
		"-f", u.ValuesPath,
		"--namespace", u.Namespace,
		"--set", "version=" + u.Version,
	}
	switch u.Mode {
	case UpgradeInstall:
		args = append(args, "--install")
	case UpgradeRecreate:
		args = append(args, "--recreate-pods")
	}
	if u.Mode != UpgradeNoWait {
		args = append(args, "--wait", "--timeout", fmt.Sprintf("%d", u.WaitSeconds))
	}
	out, err := r.Run(ctx, "helm", args...)
	if err != nil {
		return out, fmt.Errorf("%s in %s: %w", u.Name, u.Region, err)
	}
	return out, nil
}
