// Where: cli/internal/app/ops.go
// What: Command handlers over the manifest pipeline.
// Why: Each handler wires load, verify, secrets, and render for one verb.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clux/shipcat/internal/audit"
	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/filebacked"
	"github.com/clux/shipcat/internal/helm"
	"github.com/clux/shipcat/internal/kongcfg"
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/template"
	"github.com/clux/shipcat/internal/vault"
)

func loadRegion(deps Dependencies, regionName string) (*config.Config, *config.Region, error) {
	conf, err := config.Load(deps.Root)
	if err != nil {
		return nil, nil, err
	}
	region, err := conf.GetRegion(regionName)
	if err != nil {
		return nil, nil, err
	}
	return conf, region, nil
}

func secretReader(deps Dependencies, region *config.Region) (manifest.SecretReader, error) {
	if deps.Secrets != nil {
		return deps.Secrets(region.Vault)
	}
	return vault.NewClient(region.Vault)
}

// completeManifest loads a service, verifies it, resolves secrets, and
// renders its config templates.
func completeManifest(deps Dependencies, conf *config.Config, region *config.Region, service string, extra *filebacked.LoadOverrides, realSecrets bool) (*manifest.Manifest, error) {
	m, err := filebacked.LoadManifest(deps.Root, service, conf, region, extra)
	if err != nil {
		return nil, err
	}
	if err := m.VerifyRegion(); err != nil {
		return nil, err
	}
	if err := m.Verify(conf.VerifyParams()); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if realSecrets {
		sr, err := secretReader(deps, region)
		if err != nil {
			return nil, err
		}
		if err := m.InjectSecrets(ctx, sr, region.Vault.Folder); err != nil {
			return nil, err
		}
	} else {
		if err := vault.Stub(ctx, m, region.Vault.Folder); err != nil {
			return nil, err
		}
	}

	if err := template.RenderConfigs(m, region); err != nil {
		return nil, err
	}
	return m, nil
}

func runValidate(cli CLI, deps Dependencies) int {
	conf, region, err := loadRegion(deps, cli.Validate.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	ctx := context.Background()

	services := cli.Validate.Services
	if len(services) == 0 {
		if err := filebacked.ValidateAll(ctx, deps.Root, conf, region); err != nil {
			return exitWithError(deps.Err, err)
		}
		fmt.Fprintf(deps.Out, "validated all services in %s\n", region.Name)
		return 0
	}

	var sr manifest.SecretReader
	if cli.Validate.Secrets {
		if sr, err = secretReader(deps, region); err != nil {
			return exitWithError(deps.Err, err)
		}
	}
	for _, svc := range services {
		if err := filebacked.Validate(deps.Root, svc, conf, region); err != nil {
			return exitWithError(deps.Err, err)
		}
		if sr != nil {
			m, err := filebacked.LoadManifest(deps.Root, svc, conf, region, nil)
			if err != nil {
				return exitWithError(deps.Err, err)
			}
			if err := m.VerifySecretsExist(ctx, sr, region.Vault.Folder); err != nil {
				return exitWithError(deps.Err, err)
			}
		}
		fmt.Fprintf(deps.Out, "%s: valid in %s\n", svc, region.Name)
	}
	return 0
}

func runValues(cli CLI, deps Dependencies) int {
	conf, region, err := loadRegion(deps, cli.Values.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	m, err := completeManifest(deps, conf, region, cli.Values.Service, nil, cli.Values.Secrets)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	data, err := helm.Values(m)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	if cli.Values.Output == "" {
		fmt.Fprint(deps.Out, string(data))
		return 0
	}
	if err := os.WriteFile(cli.Values.Output, data, 0o644); err != nil {
		return exitWithError(deps.Err, err)
	}
	return 0
}

// tempValues writes the generated values to a temp file for subprocess use.
func tempValues(m *manifest.Manifest) (string, func(), error) {
	dir, err := os.MkdirTemp("", "shipcat-"+m.Name+"-")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, helm.ValuesFileName(m.Name))
	if _, err := helm.WriteValues(m, path); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}

func runTemplate(cli CLI, deps Dependencies) int {
	conf, region, err := loadRegion(deps, cli.Template.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	m, err := completeManifest(deps, conf, region, cli.Template.Service, nil, cli.Template.Secrets)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	path, cleanup, err := tempValues(m)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	defer cleanup()

	u, err := helm.NewUpgradeData(m, path, helm.DiffOnly)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	out, err := helm.Template(context.Background(), runner(deps), u)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	fmt.Fprint(deps.Out, out)
	return 0
}

func runDiff(cli CLI, deps Dependencies) int {
	conf, region, err := loadRegion(deps, cli.Diff.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	m, err := completeManifest(deps, conf, region, cli.Diff.Service, nil, false)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	path, cleanup, err := tempValues(m)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	defer cleanup()

	u, err := helm.NewUpgradeData(m, path, helm.DiffOnly)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	out, err := helm.Diff(context.Background(), runner(deps), u)
	fmt.Fprint(deps.Out, out)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	return 0
}

func runUpgrade(cli CLI, deps Dependencies) int {
	conf, region, err := loadRegion(deps, cli.Upgrade.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	var extra *filebacked.LoadOverrides
	if cli.Upgrade.Version != "" {
		if err := region.VerifyVersion(cli.Upgrade.Version); err != nil {
			return exitWithError(deps.Err, err)
		}
		v := cli.Upgrade.Version
		extra = &filebacked.LoadOverrides{Version: &v}
	}
	m, err := completeManifest(deps, conf, region, cli.Upgrade.Service, extra, true)
	if err != nil {
		return exitWithError(deps.Err, err)
	}

	path, cleanup, err := tempValues(m)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	defer cleanup()

	mode := helm.UpgradeInstall
	if cli.Upgrade.NoWait {
		mode = helm.UpgradeNoWait
	}
	u, err := helm.NewUpgradeData(m, path, mode)
	if err != nil {
		return exitWithError(deps.Err, err)
	}

	ctx := context.Background()
	warn := warnf(deps)
	audit.Notify(ctx, m, audit.StateStarted, warn)
	out, err := helm.Upgrade(ctx, runner(deps), u)
	fmt.Fprint(deps.Out, out)
	if err != nil {
		audit.Notify(ctx, m, audit.StateFailed, warn)
		return exitWithError(deps.Err, err)
	}
	audit.Notify(ctx, m, audit.StateCompleted, warn)
	fmt.Fprintf(deps.Out, "upgraded %s to %s in %s\n", m.Name, m.Version, region.Name)
	return 0
}

func runReconcile(cli CLI, deps Dependencies) int {
	conf, region, err := loadRegion(deps, cli.Reconcile.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	simples, err := filebacked.Available(deps.Root, conf, region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}

	var manifests []*manifest.Manifest
	for i := range simples {
		m, err := completeManifest(deps, conf, region, simples[i].Base.Name, nil, true)
		if err != nil {
			return exitWithError(deps.Err, err)
		}
		manifests = append(manifests, m)
	}

	results, err := helm.MassUpgrade(context.Background(), runner(deps), manifests, helm.UpgradeInstall, cli.Reconcile.Workers)
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(deps.Err, "%s: %v\n", res.Service, res.Err)
		} else {
			fmt.Fprintf(deps.Out, "%s: reconciled\n", res.Service)
		}
	}
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	return 0
}

func runListServices(cli CLI, deps Dependencies) int {
	conf, region, err := loadRegion(deps, cli.ListServices.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	simples, err := filebacked.Available(deps.Root, conf, region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	for i := range simples {
		fmt.Fprintln(deps.Out, simples[i].Base.Name)
	}
	return 0
}

func runListRegions(cli CLI, deps Dependencies) int {
	conf, err := config.Load(deps.Root)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	for _, name := range conf.RegionNames() {
		fmt.Fprintln(deps.Out, name)
	}
	return 0
}

func runKong(cli CLI, deps Dependencies) int {
	conf, region, err := loadRegion(deps, cli.Kong.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	out, err := kongcfg.Generate(deps.Root, conf, region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	var data []byte
	if cli.Kong.CRD {
		data, err = kongcfg.NewCRD(region.Name, out).ToYAML()
	} else {
		data, err = out.ToYAML()
	}
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	fmt.Fprint(deps.Out, string(data))
	return 0
}

// runAuditEvent posts an event as the primary action; unlike the
// best-effort notifications around upgrades, failures here are fatal.
func runAuditEvent(cli CLI, deps Dependencies) int {
	status := audit.UpgradeState(strings.ToUpper(cli.AuditEvent.Status))
	switch status {
	case audit.StatePending, audit.StateStarted, audit.StateCompleted, audit.StateFailed, audit.StateCancelled:
	default:
		return exitWithError(deps.Err, fmt.Errorf("unknown audit status %q", cli.AuditEvent.Status))
	}

	conf, region, err := loadRegion(deps, cli.AuditEvent.Region)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	m, err := filebacked.LoadManifest(deps.Root, cli.AuditEvent.Service, conf, region, nil)
	if err != nil {
		return exitWithError(deps.Err, err)
	}

	w, ok := audit.FromEnv()
	if !ok {
		return exitWithError(deps.Err, fmt.Errorf("audit webhook is not configured"))
	}
	if err := w.Send(context.Background(), w.NewDeploymentEvent(m, status)); err != nil {
		return exitWithError(deps.Err, err)
	}
	fmt.Fprintf(deps.Out, "posted %s event for %s\n", status, m.Name)
	return 0
}

func runner(deps Dependencies) helm.CommandRunner {
	if deps.Runner != nil {
		return deps.Runner
	}
	return helm.ExecRunner{}
}

func warnf(deps Dependencies) func(format string, args ...any) {
	return func(format string, args ...any) {
		fmt.Fprintf(deps.Err, "warning: "+format+"\n", args...)
	}
}
