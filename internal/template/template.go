// Where: cli/internal/template/template.go
// What: Renders mounted config file templates against manifest context.
// Why: Config templates reference env vars and region urls that only
// resolve once the manifest is built.
package template

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/manifest"
)

// Context is the data exposed to config file templates.
type Context struct {
	// Service name.
	Service string
	// Region name the render targets.
	Region string
	// Environment of the region.
	Environment string
	// Namespace the service deploys into.
	Namespace string
	// Env is the service's resolved environment variables.
	Env manifest.EnvVars
	// BaseURLs from the region config.
	BaseURLs map[string]string
	// Version of the service being rendered.
	Version string
}

// NewContext derives the template context from a built manifest.
func NewContext(m *manifest.Manifest, region *config.Region) Context {
	return Context{
		Service:     m.Name,
		Region:      m.Region,
		Environment: m.Environment,
		Namespace:   m.Namespace,
		Env:         m.Env,
		BaseURLs:    region.BaseURLs,
		Version:     m.Version,
	}
}

// Render executes one template body with sprig functions available.
// Missing keys fail the render rather than producing empty output.
func Render(name, body string, ctx Context) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderConfigs templates every mounted config file of a manifest in
// place. Call after secrets are resolved so env lookups are complete.
func RenderConfigs(m *manifest.Manifest, region *config.Region) error {
	if m.Configs == nil {
		return nil
	}
	ctx := NewContext(m, region)
	for i := range m.Configs.Files {
		f := &m.Configs.Files[i]
		rendered, err := Render(f.Name, f.Value, ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
		f.Value = rendered
	}
	return nil
}
