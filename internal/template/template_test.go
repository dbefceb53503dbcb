package template

import (
	"strings"
	"testing"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/manifest"
)

func TestRender(t *testing.T) {
	ctx := Context{
		Service:     "fake-ask",
		Region:      "dev-uk",
		Environment: "dev",
		Env:         manifest.EnvVars{"CORE_URL": "https://core.example.com"},
		BaseURLs:    map[string]string{"services": "https://services.example.com"},
	}
	out, err := Render("test", `core = "{{ .Env.CORE_URL }}" svc = "{{ .BaseURLs.services }}/{{ .Service }}"`, ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `core = "https://core.example.com" svc = "https://services.example.com/fake-ask"`
	if out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
}

func TestRenderSprigFunctions(t *testing.T) {
	out, err := Render("test", `{{ .Service | upper }}`, Context{Service: "fake-ask"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "FAKE-ASK" {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderMissingKeyFails(t *testing.T) {
	_, err := Render("test", `{{ .Env.MISSING }}`, Context{Env: manifest.EnvVars{}})
	if err == nil {
		t.Fatalf("expected missing env key to fail")
	}
}

func TestRenderConfigs(t *testing.T) {
	m := &manifest.Manifest{
		Name:        "fake-ask",
		Region:      "dev-uk",
		Environment: "dev",
		Env:         manifest.EnvVars{"CORE_URL": "https://core.example.com"},
		Configs: &manifest.ConfigMap{
			Mount: "/config/",
			Files: []manifest.ConfigMappedFile{
				{Name: "app.toml", Value: `core_url = "{{ .Env.CORE_URL }}"`},
			},
		},
	}
	region := &config.Region{Name: "dev-uk"}
	if err := RenderConfigs(m, region); err != nil {
		t.Fatalf("render configs: %v", err)
	}
	if !strings.Contains(m.Configs.Files[0].Value, "https://core.example.com") {
		t.Fatalf("value = %q", m.Configs.Files[0].Value)
	}
}
