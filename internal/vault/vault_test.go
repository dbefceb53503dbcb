package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/manifest"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("VAULT_TOKEN", "test-token")
	c, err := NewClient(config.VaultConfig{URL: srv.URL, Folder: "dev-uk"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClientRead(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "test-token" {
			t.Errorf("missing vault token header")
		}
		if r.URL.Path != "/v1/secret/dev-uk/fake-ask/FAKE_SECRET" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"value":"hush"}}`))
	})
	v, err := c.Read(context.Background(), "dev-uk/fake-ask/FAKE_SECRET")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != "hush" {
		t.Fatalf("value = %q", v)
	}
}

func TestClientReadNumericValue(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"value":8080}}`))
	})
	v, err := c.Read(context.Background(), "dev-uk/fake-ask/PORT")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != "8080" {
		t.Fatalf("value = %q", v)
	}
}

func TestClientReadErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	})
	if _, err := c.Read(context.Background(), "dev-uk/fake-ask/NOPE"); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestClientList(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list") != "true" {
			t.Errorf("expected list=true query, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":{"keys":["FAKE_SECRET","OTHER"]}}`))
	})
	keys, err := c.List(context.Background(), "dev-uk/fake-ask")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "FAKE_SECRET" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestStub(t *testing.T) {
	m := &manifest.Manifest{
		Name:  "fake-ask",
		Env:   manifest.EnvVars{"FAKE_SECRET": manifest.InVault},
		State: manifest.StateBase,
	}
	if err := Stub(context.Background(), m, "dev-uk"); err != nil {
		t.Fatalf("stub: %v", err)
	}
	if m.State != manifest.StateStubbed {
		t.Fatalf("state = %q", m.State)
	}
	if m.Secrets["FAKE_SECRET"] != MockValue {
		t.Fatalf("secret = %q", m.Secrets["FAKE_SECRET"])
	}
}
