package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/vault"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	return "rendered\n", nil
}

func testDeps(t *testing.T) (Dependencies, *bytes.Buffer, *fakeRunner) {
	t.Helper()
	out := &bytes.Buffer{}
	r := &fakeRunner{}
	deps := Dependencies{
		Root:   "../filebacked/testdata",
		Out:    out,
		Err:    &bytes.Buffer{},
		Runner: r,
		Secrets: func(config.VaultConfig) (manifest.SecretReader, error) {
			return vault.Mocked{}, nil
		},
	}
	return deps, out, r
}

func TestRunValidate(t *testing.T) {
	deps, out, _ := testDeps(t)
	if code := Run([]string{"validate", "-r", "dev-uk"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if !strings.Contains(out.String(), "validated all services") {
		t.Fatalf("out = %q", out.String())
	}
}

func TestRunValidateSingleService(t *testing.T) {
	deps, out, _ := testDeps(t)
	if code := Run([]string{"validate", "fake-ask", "-r", "dev-uk"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if !strings.Contains(out.String(), "fake-ask: valid in dev-uk") {
		t.Fatalf("out = %q", out.String())
	}
}

func TestRunValidateUnknownRegion(t *testing.T) {
	deps, _, _ := testDeps(t)
	if code := Run([]string{"validate", "-r", "prod-us"}, deps); code == 0 {
		t.Fatalf("expected unknown region to fail")
	}
}

func TestRunValuesStubbed(t *testing.T) {
	deps, out, _ := testDeps(t)
	if code := Run([]string{"values", "fake-ask", "-r", "dev-uk"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	s := out.String()
	if !strings.Contains(s, "name: fake-ask") {
		t.Errorf("values missing service name:\n%s", s)
	}
	if !strings.Contains(s, vault.MockValue) {
		t.Errorf("stubbed values should carry mock secrets:\n%s", s)
	}
}

func TestRunTemplateInvokesHelm(t *testing.T) {
	deps, out, r := testDeps(t)
	if code := Run([]string{"template", "fake-ask", "-r", "dev-uk"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if len(r.calls) != 1 || !strings.HasPrefix(r.calls[0], "helm template charts/base") {
		t.Fatalf("calls = %v", r.calls)
	}
	if out.String() != "rendered\n" {
		t.Fatalf("out = %q", out.String())
	}
}

func TestRunUpgradeWithVersionOverride(t *testing.T) {
	deps, out, r := testDeps(t)
	if code := Run([]string{"upgrade", "fake-ask", "-r", "dev-uk", "--version", "1.7.0"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if len(r.calls) != 1 {
		t.Fatalf("calls = %v", r.calls)
	}
	if !strings.Contains(r.calls[0], "--set version=1.7.0") {
		t.Errorf("override version not passed to helm: %q", r.calls[0])
	}
	if !strings.Contains(out.String(), "upgraded fake-ask to 1.7.0 in dev-uk") {
		t.Errorf("out = %q", out.String())
	}
}

func TestRunUpgradeRejectsBadVersion(t *testing.T) {
	deps, _, r := testDeps(t)
	if code := Run([]string{"upgrade", "fake-ask", "-r", "dev-uk", "--version", "latest"}, deps); code == 0 {
		t.Fatalf("expected version scheme rejection")
	}
	if len(r.calls) != 0 {
		t.Fatalf("helm should not run on a rejected version: %v", r.calls)
	}
}

func TestRunReconcile(t *testing.T) {
	deps, out, r := testDeps(t)
	if code := Run([]string{"reconcile", "-r", "dev-uk"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if !strings.Contains(out.String(), "fake-ask: reconciled") {
		t.Fatalf("out = %q", out.String())
	}
	if len(r.calls) != 1 {
		t.Fatalf("expected one upgrade in the region, got %v", r.calls)
	}
}

func TestRunListServices(t *testing.T) {
	deps, out, _ := testDeps(t)
	if code := Run([]string{"list-services", "-r", "dev-uk"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if strings.TrimSpace(out.String()) != "fake-ask" {
		t.Fatalf("out = %q", out.String())
	}
}

func TestRunListRegions(t *testing.T) {
	deps, out, _ := testDeps(t)
	if code := Run([]string{"list-regions"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if strings.TrimSpace(out.String()) != "dev-uk" {
		t.Fatalf("out = %q", out.String())
	}
}

func TestRunKong(t *testing.T) {
	deps, out, _ := testDeps(t)
	if code := Run([]string{"kong", "-r", "dev-uk"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if !strings.Contains(out.String(), "fake-ask") {
		t.Fatalf("out = %q", out.String())
	}
}

func TestRunKongCRD(t *testing.T) {
	deps, out, _ := testDeps(t)
	if code := Run([]string{"kong", "-r", "dev-uk", "--crd"}, deps); code != 0 {
		t.Fatalf("exit = %d, err: %s", code, deps.Err)
	}
	if !strings.Contains(out.String(), "kind: KongConfig") {
		t.Fatalf("out = %q", out.String())
	}
}

func TestRunVersion(t *testing.T) {
	deps, out, _ := testDeps(t)
	if code := Run([]string{"version"}, deps); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Fatalf("version output empty")
	}
}
