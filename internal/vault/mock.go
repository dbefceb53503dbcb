// Where: cli/internal/vault/mock.go
// What: Deterministic secret reader for offline rendering.
package vault

import (
	"context"

	"github.com/clux/shipcat/internal/manifest"
)

// MockValue is returned for every secret by the mocked reader. It is a
// valid base64 string so secret file checks still pass.
const MockValue = "IndecipherableSecret"

// Mocked satisfies secrets without a vault, for tests and stub renders.
type Mocked struct{}

var _ manifest.SecretReader = Mocked{}

func (Mocked) Read(ctx context.Context, path string) (string, error) {
	return MockValue, nil
}

func (Mocked) List(ctx context.Context, path string) ([]string, error) {
	return nil, nil
}

// Stub fills a base manifest with mock secrets and marks it Stubbed so
// it can be rendered without touching a real secret store.
func Stub(ctx context.Context, m *manifest.Manifest, folder string) error {
	if err := m.InjectSecrets(ctx, Mocked{}, folder); err != nil {
		return err
	}
	m.State = manifest.StateStubbed
	return nil
}
