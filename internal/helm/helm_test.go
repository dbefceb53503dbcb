package helm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/clux/shipcat/internal/manifest"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	call := name + " " + strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	for prefix, err := range f.fail {
		if strings.HasPrefix(call, prefix) {
			return "", err
		}
	}
	return "ok", nil
}

func completedManifest(name string) *manifest.Manifest {
	return &manifest.Manifest{
		Name:      name,
		Chart:     "base",
		Version:   "1.6.0",
		Region:    "dev-uk",
		Namespace: "apps",
		State:     manifest.StateCompleted,
	}
}

func TestValuesRejectsBaseManifest(t *testing.T) {
	m := completedManifest("fake-ask")
	m.State = manifest.StateBase
	if _, err := Values(m); err == nil {
		t.Fatalf("expected base manifest to be rejected")
	}
}

func TestUpgradeArgs(t *testing.T) {
	r := &fakeRunner{}
	u, err := NewUpgradeData(completedManifest("fake-ask"), "vals.yml", UpgradeInstall)
	if err != nil {
		t.Fatalf("upgrade data: %v", err)
	}
	if _, err := Upgrade(context.Background(), r, u); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if len(r.calls) != 1 {
		t.Fatalf("calls = %v", r.calls)
	}
	call := r.calls[0]
	for _, want := range []string{"helm upgrade fake-ask charts/base", "-f vals.yml", "--namespace apps", "--install", "--wait"} {
		if !strings.Contains(call, want) {
			t.Errorf("call %q missing %q", call, want)
		}
	}
}

func TestUpgradeNoWaitOmitsWait(t *testing.T) {
	r := &fakeRunner{}
	u, _ := NewUpgradeData(completedManifest("fake-ask"), "vals.yml", UpgradeNoWait)
	if _, err := Upgrade(context.Background(), r, u); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if strings.Contains(r.calls[0], "--wait") {
		t.Fatalf("no-wait mode should not pass --wait: %q", r.calls[0])
	}
}

func TestNewUpgradeDataRequiresVersion(t *testing.T) {
	m := completedManifest("fake-ask")
	m.Version = ""
	if _, err := NewUpgradeData(m, "vals.yml", UpgradeWait); err == nil {
		t.Fatalf("expected missing version to fail")
	}
}

func TestMassUpgrade(t *testing.T) {
	r := &fakeRunner{}
	var manifests []*manifest.Manifest
	for i := 0; i < 5; i++ {
		manifests = append(manifests, completedManifest(fmt.Sprintf("svc-%d", i)))
	}
	results, err := MassUpgrade(context.Background(), r, manifests, UpgradeWait, 3)
	if err != nil {
		t.Fatalf("mass upgrade: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("results = %d", len(results))
	}
	for i, res := range results {
		if res.Service != fmt.Sprintf("svc-%d", i) {
			t.Errorf("results[%d] = %q, want input order", i, res.Service)
		}
		if res.Err != nil {
			t.Errorf("%s: %v", res.Service, res.Err)
		}
	}
}

func TestMassUpgradeCollectsAllBeforeFailing(t *testing.T) {
	r := &fakeRunner{fail: map[string]error{
		"helm upgrade svc-1": fmt.Errorf("boom"),
	}}
	manifests := []*manifest.Manifest{
		completedManifest("svc-0"),
		completedManifest("svc-1"),
		completedManifest("svc-2"),
	}
	results, err := MassUpgrade(context.Background(), r, manifests, UpgradeWait, 2)
	if err == nil {
		t.Fatalf("expected the svc-1 failure to surface")
	}
	if len(results) != 3 {
		t.Fatalf("all services should report a result, got %d", len(results))
	}
	if results[1].Err == nil || results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("unexpected error distribution: %+v", results)
	}
}
