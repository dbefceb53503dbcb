// Where: cli/internal/helm/values.go
// What: Helm values file generation from a built manifest.
package helm

import (
	"fmt"
	"os"

	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/meta"
)

// Values serializes a manifest for chart consumption. Base manifests
// are rejected so IN_VAULT placeholders never reach a chart.
func Values(m *manifest.Manifest) ([]byte, error) {
	if m.State == manifest.StateBase {
		return nil, fmt.Errorf("%s: refusing to render values from a base manifest", m.Name)
	}
	return m.ToYAML()
}

// ValuesFileName is the canonical generated values name for a service.
func ValuesFileName(service string) string {
	return service + meta.HelmValuesSuffix
}

// WriteValues generates the values file at path, or the canonical name
// in the working directory when path is empty.
func WriteValues(m *manifest.Manifest, path string) (string, error) {
	data, err := Values(m)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = ValuesFileName(m.Name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%s: write values: %w", m.Name, err)
	}
	return path, nil
}
