// Where: cli/cmd/shipcat/cli.go
// What: CLI dependency wiring helpers.
// Why: Centralize construction for testability.
package main

import (
	"os"

	"github.com/clux/shipcat/internal/app"
	"github.com/clux/shipcat/internal/helm"
)

var getwd = os.Getwd

// buildDependencies constructs all runtime dependencies required by the
// CLI: the manifests root and the helm subprocess runner. The secret
// reader is left nil so commands default to the region's vault.
func buildDependencies() (app.Dependencies, error) {
	root, err := getwd()
	if err != nil {
		return app.Dependencies{}, err
	}
	return app.Dependencies{
		Root:   root,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Runner: helm.ExecRunner{},
	}, nil
}
