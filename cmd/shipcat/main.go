// Where: cli/cmd/shipcat/main.go
// What: CLI entrypoint.
// Why: Execute shipcat commands with configured dependencies.
package main

import (
	"fmt"
	"os"

	"github.com/clux/shipcat/internal/app"
)

func main() {
	deps, err := buildDependencies()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(app.Run(os.Args[1:], deps))
}
