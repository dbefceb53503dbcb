// Where: cli/internal/config/load.go
// What: Strict, schema-gated loading of shipcat.conf.
// Why: Reject unknown keys and malformed documents before any merge work.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/clux/shipcat/internal/meta"
	"gopkg.in/yaml.v3"
)

var (
	semverRe = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)
	gitShaRe = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// Load reads and validates the config at the root of a manifests repository.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, meta.ConfigFile)
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := validateConfigSchema(payload); err != nil {
		return nil, fmt.Errorf("%s does not match the config schema: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(payload))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}
