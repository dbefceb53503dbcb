// Where: cli/internal/app/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher over the manifest pipeline.
package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/helm"
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/version"
)

// Dependencies holds all injected dependencies required for CLI command
// execution, so tests can swap the subprocess runner and secret store.
type Dependencies struct {
	// Root of the manifests repository. Defaults to the working directory.
	Root string
	Out  io.Writer
	Err  io.Writer

	// Runner executes helm and kubectl. Defaults to helm.ExecRunner.
	Runner helm.CommandRunner

	// Secrets builds the secret reader for a region's vault. Defaults
	// to the HTTP vault client.
	Secrets func(config.VaultConfig) (manifest.SecretReader, error)
}

// CLI defines the command-line interface structure parsed by Kong.
type CLI struct {
	Root    string `short:"d" name:"root" help:"Manifests repository root" default:"."`
	EnvFile string `name:"env-file" help:"Path to .env file"`

	Validate     ValidateCmd     `cmd:"" help:"Verify service manifests in a region"`
	Values       ValuesCmd       `cmd:"" help:"Generate helm values for a service"`
	Template     TemplateCmd     `cmd:"" help:"Render the chart locally for a service"`
	Diff         DiffCmd         `cmd:"" help:"Diff a service against the cluster"`
	Upgrade      UpgradeCmd      `cmd:"" help:"Upgrade a service release"`
	Reconcile    ReconcileCmd    `cmd:"" help:"Upgrade every service in a region"`
	ListServices ListServicesCmd `cmd:"" name:"list-services" help:"List services enabled in a region"`
	ListRegions  ListRegionsCmd  `cmd:"" name:"list-regions" help:"List configured regions"`
	Kong         KongCmd         `cmd:"" help:"Generate gateway config for a region"`
	AuditEvent   AuditEventCmd   `cmd:"" name:"audit-event" help:"Post a deployment audit event"`
	Version      VersionCmd      `cmd:"" help:"Show version information"`
}

type (
	ValidateCmd struct {
		Services []string `arg:"" optional:"" help:"Services to validate (default: all)"`
		Region   string   `short:"r" required:"" help:"Region to validate against"`
		Secrets  bool     `help:"Also verify secrets exist in vault"`
	}
	ValuesCmd struct {
		Service string `arg:"" help:"Service to render"`
		Region  string `short:"r" required:"" help:"Region to render for"`
		Output  string `short:"o" help:"Output file (default: stdout)"`
		Secrets bool   `help:"Resolve real secrets instead of stubs"`
	}
	TemplateCmd struct {
		Service string `arg:"" help:"Service to template"`
		Region  string `short:"r" required:"" help:"Region to template for"`
		Secrets bool   `help:"Resolve real secrets instead of stubs"`
	}
	DiffCmd struct {
		Service string `arg:"" help:"Service to diff"`
		Region  string `short:"r" required:"" help:"Region to diff against"`
	}
	UpgradeCmd struct {
		Service string `arg:"" help:"Service to upgrade"`
		Region  string `short:"r" required:"" help:"Region to upgrade in"`
		Version string `help:"Version override, highest precedence"`
		NoWait  bool   `name:"no-wait" help:"Do not wait for rollout completion"`
	}
	ReconcileCmd struct {
		Region  string `short:"r" required:"" help:"Region to reconcile"`
		Workers int    `short:"j" default:"4" help:"Parallel upgrade workers"`
	}
	ListServicesCmd struct {
		Region string `short:"r" required:"" help:"Region to list for"`
	}
	ListRegionsCmd struct{}
	KongCmd        struct {
		Region string `short:"r" required:"" help:"Region to generate for"`
		CRD    bool   `help:"Wrap the output in a custom resource envelope"`
	}
	AuditEventCmd struct {
		Service string `arg:"" help:"Service the event concerns"`
		Region  string `short:"r" required:"" help:"Region the event concerns"`
		Status  string `required:"" help:"Event status (PENDING/STARTED/COMPLETED/FAILED/CANCELLED)"`
	}
	VersionCmd struct{}
)

// Run is the main entry point for CLI command execution. It parses the
// arguments and dispatches to the matching handler. Returns the exit code.
func Run(args []string, deps Dependencies) int {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Err == nil {
		deps.Err = os.Stderr
	}

	cli := CLI{}
	parser, err := kong.New(&cli)
	if err != nil {
		return exitWithError(deps.Err, err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return exitWithError(deps.Err, err)
	}

	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil {
			fmt.Fprintf(deps.Err, "warning: failed to load env file %s: %v\n", cli.EnvFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(deps.Err, "warning: failed to load .env: %v\n", err)
		}
	}

	if cli.Root != "" && cli.Root != "." {
		deps.Root = cli.Root
	}
	if deps.Root == "" {
		deps.Root = "."
	}

	if exitCode, handled := dispatchCommand(ctx.Command(), cli, deps); handled {
		return exitCode
	}
	fmt.Fprintln(deps.Err, "unknown command")
	return 1
}

type commandHandler func(CLI, Dependencies) int

func dispatchCommand(command string, cli CLI, deps Dependencies) (int, bool) {
	exactHandlers := map[string]commandHandler{
		"validate":      runValidate,
		"reconcile":     runReconcile,
		"list-services": runListServices,
		"list-regions":  runListRegions,
		"kong":          runKong,
		"version":       func(_ CLI, deps Dependencies) int { return runVersion(deps.Out) },
	}
	if handler, ok := exactHandlers[command]; ok {
		return handler(cli, deps), true
	}

	prefixHandlers := []struct {
		prefix  string
		handler commandHandler
	}{
		{prefix: "validate", handler: runValidate},
		{prefix: "values", handler: runValues},
		{prefix: "template", handler: runTemplate},
		{prefix: "diff", handler: runDiff},
		{prefix: "upgrade", handler: runUpgrade},
		{prefix: "audit-event", handler: runAuditEvent},
	}
	for _, entry := range prefixHandlers {
		if strings.HasPrefix(command, entry.prefix) {
			return entry.handler(cli, deps), true
		}
	}
	return 1, false
}

func runVersion(out io.Writer) int {
	fmt.Fprintln(out, version.GetVersion())
	return 0
}

func exitWithError(out io.Writer, err error) int {
	fmt.Fprintln(out, err)
	return 1
}
