package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validConf = `defaults:
  chart: base
  imagePrefix: quay.io/babylonhealth
  replicaCount: 2
regions:
- name: dev-uk
  cluster: kops-uk
  namespace: apps
  environment: dev
  vault:
    url: https://vault.example.com:8200
    folder: dev-uk
  kong:
    config_url: https://kong-admin-dev.example.com
    base_url: dev.example.com
  kafka:
    brokers:
    - kafka-0.dev.example.com:9092
  baseUrls:
    services: https://services.dev.example.com
  versioningScheme: GitShaOrSemver
owners:
  squads:
    doves:
      name: Doves
      tribe: search
allowedLabels:
- custom-metrics
contextAliases:
  kops-uk: dev-uk
`

func writeConf(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shipcat.conf"), []byte(content), 0o644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConf(t, validConf))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Defaults.Chart != "base" {
		t.Fatalf("chart = %q", cfg.Defaults.Chart)
	}
	r, err := cfg.GetRegion("dev-uk")
	if err != nil {
		t.Fatalf("get region: %v", err)
	}
	if r.Vault.Folder != "dev-uk" {
		t.Fatalf("vault folder = %q", r.Vault.Folder)
	}
	if r.Kong == nil || r.Kong.BaseURL != "dev.example.com" {
		t.Fatalf("kong region not parsed: %+v", r.Kong)
	}
}

func TestLoadAlias(t *testing.T) {
	cfg, err := Load(writeConf(t, validConf))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r, err := cfg.GetRegion("kops-uk")
	if err != nil {
		t.Fatalf("aliased region: %v", err)
	}
	if r.Name != "dev-uk" {
		t.Fatalf("alias resolved to %q", r.Name)
	}
	if _, err := cfg.GetRegion("prod-us"); err == nil {
		t.Fatalf("expected unknown region to fail")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	conf := strings.Replace(validConf, "allowedLabels:", "allowedLabelz:", 1)
	_, err := Load(writeConf(t, conf))
	if err == nil {
		t.Fatalf("expected unknown key to fail the schema gate")
	}
}

func TestLoadRejectsMissingVault(t *testing.T) {
	conf := strings.Replace(validConf, "  vault:\n    url: https://vault.example.com:8200\n    folder: dev-uk\n", "", 1)
	_, err := Load(writeConf(t, conf))
	if err == nil {
		t.Fatalf("expected missing vault to fail")
	}
}

func TestVerifyVersion(t *testing.T) {
	r := Region{Name: "dev-uk", VersioningScheme: "Semver"}
	if err := r.VerifyVersion("1.2.0"); err != nil {
		t.Fatalf("semver: %v", err)
	}
	if err := r.VerifyVersion("d34db33f"); err == nil {
		t.Fatalf("expected short sha to fail Semver scheme")
	}
	r.VersioningScheme = "GitShaOrSemver"
	if err := r.VerifyVersion("0123456789abcdef0123456789abcdef01234567"); err != nil {
		t.Fatalf("git sha: %v", err)
	}
}
