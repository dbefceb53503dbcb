// Where: cli/internal/vault/vault.go
// What: Secret store clients implementing manifest.SecretReader.
// Why: Base manifests carry IN_VAULT placeholders that resolve here.
package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/manifest"
)

const requestTimeout = 10 * time.Second

// Client reads secrets from a vault KV v1 mount over HTTP.
type Client struct {
	addr  string
	token string
	http  *http.Client
}

var _ manifest.SecretReader = (*Client)(nil)

// NewClient builds a client for the region's vault, resolving the token
// from VAULT_TOKEN or the ~/.vault-token file that `vault login` writes.
func NewClient(vc config.VaultConfig) (*Client, error) {
	token, err := findToken()
	if err != nil {
		return nil, err
	}
	return &Client{
		addr:  vc.URL,
		token: token,
		http:  &http.Client{Timeout: requestTimeout},
	}, nil
}

func findToken() (string, error) {
	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		return token, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("vault token not found: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(home, ".vault-token"))
	if err != nil {
		return "", fmt.Errorf("VAULT_TOKEN is not set and no ~/.vault-token found: %w", err)
	}
	return string(data), nil
}

// secretResponse is the KV v1 read envelope. Values are sometimes yaml
// numbers in the store, so the value field is decoded loosely.
type secretResponse struct {
	Data map[string]json.RawMessage `json:"data"`
}

type listResponse struct {
	Data struct {
		Keys []string `json:"keys"`
	} `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, query string, out any) error {
	u := fmt.Sprintf("%s/v1/secret/%s", c.addr, path)
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Vault-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vault GET %s: %s: %s", path, resp.Status, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Read fetches the `value` key of the secret at path.
func (c *Client) Read(ctx context.Context, path string) (string, error) {
	var sr secretResponse
	if err := c.get(ctx, path, "", &sr); err != nil {
		return "", err
	}
	raw, ok := sr.Data["value"]
	if !ok {
		return "", fmt.Errorf("secret %s has no value key", path)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	// numeric values are stored unquoted by some writers
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", fmt.Errorf("secret %s value is not a scalar", path)
}

// List enumerates the secret names under a folder path.
func (c *Client) List(ctx context.Context, path string) ([]string, error) {
	var lr listResponse
	if err := c.get(ctx, path, url.Values{"list": {"true"}}.Encode(), &lr); err != nil {
		return nil, err
	}
	return lr.Data.Keys, nil
}
