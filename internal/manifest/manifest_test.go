package manifest

import (
	"context"
	"strings"
	"testing"
)

func testManifest(name string) *Manifest {
	res := validResources()
	return &Manifest{
		Name:         name,
		Chart:        "base",
		Image:        "quay.io/babylonhealth/" + name,
		ImageSize:    512,
		Version:      "1.0.0",
		Regions:      []string{"dev-uk"},
		Region:       "dev-uk",
		Environment:  "dev",
		Namespace:    "apps",
		ReplicaCount: 2,
		Resources:    &res,
		Metadata: &Metadata{
			Team: "doves",
			Repo: "https://github.com/clux/shipcat",
		},
		State: StateBase,
	}
}

func TestManifestVerify(t *testing.T) {
	m := testManifest("fake-ask")
	if err := m.Verify(VerifyParams{}); err != nil {
		t.Fatalf("valid manifest failed: %v", err)
	}
}

func TestManifestVerifyBadName(t *testing.T) {
	m := testManifest("Fake_Ask")
	if err := m.Verify(VerifyParams{}); err == nil {
		t.Fatalf("expected upper case name to fail")
	}
	m = testManifest("trailing-")
	if err := m.Verify(VerifyParams{}); err == nil {
		t.Fatalf("expected trailing dash to fail")
	}
}

func TestManifestVerifyRegion(t *testing.T) {
	m := testManifest("fake-ask")
	m.Region = "prod-us"
	err := m.Verify(VerifyParams{})
	if err == nil || !strings.Contains(err.Error(), "unsupported region") {
		t.Fatalf("expected out of region manifest to fail, got %v", err)
	}
}

func TestManifestVerifyMissingMetadata(t *testing.T) {
	m := testManifest("fake-ask")
	m.Metadata = nil
	if err := m.Verify(VerifyParams{}); err == nil {
		t.Fatalf("expected missing metadata to fail")
	}
}

func TestManifestVerifyLabels(t *testing.T) {
	m := testManifest("fake-ask")
	m.Labels = map[string]string{"custom-metrics": "true"}
	if err := m.Verify(VerifyParams{AllowedLabels: []string{"other"}}); err == nil {
		t.Fatalf("expected unknown label to fail")
	}
	if err := m.Verify(VerifyParams{AllowedLabels: []string{"custom-metrics"}}); err != nil {
		t.Fatalf("allowed label failed: %v", err)
	}
}

func TestManifestVaultPath(t *testing.T) {
	m := testManifest("fake-ask")
	if got := m.VaultPath("dev-uk"); got != "dev-uk/fake-ask" {
		t.Fatalf("vault path = %q", got)
	}
	m.Vault = &VaultOpts{Name: "fake-storage"}
	if got := m.VaultPath("dev-uk"); got != "dev-uk/fake-storage" {
		t.Fatalf("overridden vault path = %q", got)
	}
}

type fakeSecrets struct {
	values map[string]string
	keys   []string
}

func (f *fakeSecrets) Read(_ context.Context, path string) (string, error) {
	return f.values[path], nil
}

func (f *fakeSecrets) List(_ context.Context, _ string) ([]string, error) {
	return f.keys, nil
}

func TestInjectSecrets(t *testing.T) {
	m := testManifest("fake-ask")
	m.Env = EnvVars{"DATABASE_URL": InVault, "RUST_LOG": "debug"}
	m.SecretFiles = map[string]string{"keystore": InVault}
	sr := &fakeSecrets{values: map[string]string{
		"dev-uk/fake-ask/DATABASE_URL": "postgres://localhost",
		"dev-uk/fake-ask/keystore":     "aGVsbG8gd29ybGQ=",
	}}
	if err := m.InjectSecrets(context.Background(), sr, "dev-uk"); err != nil {
		t.Fatalf("inject: %v", err)
	}
	if m.State != StateCompleted {
		t.Fatalf("state = %q, want Completed", m.State)
	}
	if m.Secrets["DATABASE_URL"] != "postgres://localhost" {
		t.Fatalf("secret not resolved: %v", m.Secrets)
	}
	if m.SecretFiles["keystore"] != "aGVsbG8gd29ybGQ=" {
		t.Fatalf("secret file not resolved: %v", m.SecretFiles)
	}
}

func TestInjectSecretsRejectsBadBase64(t *testing.T) {
	m := testManifest("fake-ask")
	m.SecretFiles = map[string]string{"keystore": InVault}
	sr := &fakeSecrets{values: map[string]string{
		"dev-uk/fake-ask/keystore": "not base64!!",
	}}
	err := m.InjectSecrets(context.Background(), sr, "dev-uk")
	if err == nil || !strings.Contains(err.Error(), "base64") {
		t.Fatalf("expected base64 error, got %v", err)
	}
}

func TestInjectSecretsOnlyFromBase(t *testing.T) {
	m := testManifest("fake-ask")
	m.State = StateCompleted
	if err := m.InjectSecrets(context.Background(), &fakeSecrets{}, "dev-uk"); err == nil {
		t.Fatalf("expected re-injection to fail")
	}
}

func TestVerifySecretsExist(t *testing.T) {
	m := testManifest("fake-ask")
	m.Env = EnvVars{"DATABASE_URL": InVault}
	sr := &fakeSecrets{keys: []string{"DATABASE_URL"}}
	if err := m.VerifySecretsExist(context.Background(), sr, "dev-uk"); err != nil {
		t.Fatalf("verify secrets: %v", err)
	}
	sr.keys = []string{"OTHER"}
	err := m.VerifySecretsExist(context.Background(), sr, "dev-uk")
	if err == nil || !strings.Contains(err.Error(), "missing secrets") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestEstimateWaitTime(t *testing.T) {
	m := testManifest("fake-ask")
	// 512MB image => 60s pull estimate, no probes => 30s boot guess
	// 2 replicas at the default surge estimate => 1 iteration
	if got := m.EstimateWaitTime(); got != 90 {
		t.Fatalf("wait estimate = %d, want 90", got)
	}
	m.Health = &HealthCheck{URI: "/health", Wait: 20}
	if got := m.EstimateWaitTime(); got != 80 {
		t.Fatalf("wait estimate with health = %d, want 80", got)
	}
	m.ImageSize = 0
	if got := m.EstimateWaitTime(); got != 0 {
		t.Fatalf("wait estimate without image size = %d, want 0", got)
	}
}

func TestComputeResourceTotals(t *testing.T) {
	m := testManifest("fake-ask")
	totals, err := m.ComputeResourceTotals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	// 2 replicas x 250m requests
	if totals.Base.Requests.CPU != 0.5 {
		t.Fatalf("base requests cpu = %v, want 0.5", totals.Base.Requests.CPU)
	}
	if totals.Extra.Requests.CPU != 0 {
		t.Fatalf("extra requests cpu = %v, want 0", totals.Extra.Requests.CPU)
	}

	m.AutoScaling = &AutoScaling{MinReplicas: 2, MaxReplicas: 6}
	totals, err = m.ComputeResourceTotals()
	if err != nil {
		t.Fatalf("autoscaled totals: %v", err)
	}
	if totals.Base.Requests.CPU != 0.5 {
		t.Fatalf("autoscaled base cpu = %v, want 0.5", totals.Base.Requests.CPU)
	}
	if totals.Extra.Requests.CPU != 1 {
		t.Fatalf("autoscaled extra cpu = %v, want 1", totals.Extra.Requests.CPU)
	}
}
