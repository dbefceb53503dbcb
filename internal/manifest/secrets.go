// Where: cli/internal/manifest/secrets.go
// What: Secret resolution moving a Base manifest to Completed or Stubbed.
// Why: Base manifests must never carry real secret values.
package manifest

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
)

// SecretReader resolves secret keys under a folder path.
// The vault package provides the real and the mocked implementation.
type SecretReader interface {
	Read(ctx context.Context, path string) (string, error)
	List(ctx context.Context, path string) ([]string, error)
}

// InjectSecrets resolves every IN_VAULT placeholder via the reader and
// moves the manifest into the Completed state. Resolved env secrets are
// partitioned into Secrets; secretFiles are replaced in place and must
// decode as base64.
func (m *Manifest) InjectSecrets(ctx context.Context, sr SecretReader, folder string) error {
	if m.State != StateBase {
		return fmt.Errorf("%s: secrets can only be injected into a base manifest", m.Name)
	}
	pth := m.VaultPath(folder)

	keys := map[string]bool{}
	for _, e := range m.GetEnvVars() {
		for _, k := range e.SecretKeys() {
			keys[k] = true
		}
	}
	if m.Secrets == nil && len(keys) > 0 {
		m.Secrets = map[string]string{}
	}
	for _, k := range sortedKeys(keys) {
		v, err := sr.Read(ctx, fmt.Sprintf("%s/%s", pth, k))
		if err != nil {
			return fmt.Errorf("%s: secret %s: %w", m.Name, k, err)
		}
		m.Secrets[k] = v
	}

	for k, v := range m.SecretFiles {
		if v == InVault {
			read, err := sr.Read(ctx, fmt.Sprintf("%s/%s", pth, k))
			if err != nil {
				return fmt.Errorf("%s: secret file %s: %w", m.Name, k, err)
			}
			v = read
			m.SecretFiles[k] = v
		}
		// secretFiles are assumed base64, check we can decode
		if _, err := base64.StdEncoding.DecodeString(v); err != nil {
			return fmt.Errorf("%s: secret file %s is not base64 encoded", m.Name, k)
		}
	}

	m.State = StateCompleted
	return nil
}

// VerifySecretsExist cross references the IN_VAULT keys against the
// listing of the service's secret folder without reading any values.
func (m *Manifest) VerifySecretsExist(ctx context.Context, sr SecretReader, folder string) error {
	expected := map[string]bool{}
	for _, e := range m.GetEnvVars() {
		for _, k := range e.SecretKeys() {
			expected[k] = true
		}
	}
	for k, v := range m.SecretFiles {
		if v == InVault {
			expected[k] = true
		}
	}
	if len(expected) == 0 {
		return nil
	}

	pth := m.VaultPath(folder)
	found, err := sr.List(ctx, pth)
	if err != nil {
		return fmt.Errorf("missing secret folder %s expected to contain %v: %w",
			pth, sortedKeys(expected), err)
	}
	have := map[string]bool{}
	for _, k := range found {
		have[k] = true
	}
	var missing []string
	for k := range expected {
		if !have[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing secrets: %v not found in vault %s", missing, pth)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
