// Where: cli/internal/meta/meta.go
// What: CLI-local metadata constants.
// Why: Keep file names and env prefixes in one place.
package meta

const (
	// Project Identity
	AppName   = "shipcat"
	EnvPrefix = "SHIPCAT"

	// Manifests repository layout
	ConfigFile   = "shipcat.conf"
	ManifestFile = "shipcat.yml"
	ServicesDir  = "services"
	TemplatesDir = "templates"

	// Generated artifacts
	HelmValuesSuffix = ".helm.gen.yml"
)

// Version is the build version, overridden at link time.
var Version = "dev"
