package kongcfg

import (
	"strings"
	"testing"

	"github.com/clux/shipcat/internal/config"
)

func loadTestConfig(t *testing.T) (*config.Config, *config.Region) {
	t.Helper()
	conf, err := config.Load("../filebacked/testdata")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	region, err := conf.GetRegion("dev-uk")
	if err != nil {
		t.Fatalf("get region: %v", err)
	}
	return conf, region
}

func TestGenerate(t *testing.T) {
	conf, region := loadTestConfig(t)
	out, err := Generate("../filebacked/testdata", conf, region)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	api, ok := out.APIs["fake-ask"]
	if !ok {
		t.Fatalf("apis = %v", out.APIs)
	}
	if api.UpstreamURL != "http://fake-ask.apps.svc.cluster.local" {
		t.Errorf("upstream = %q", api.UpstreamURL)
	}
}

func TestGenerateRegionSettings(t *testing.T) {
	conf, region := loadTestConfig(t)
	out, err := Generate("../filebacked/testdata", conf, region)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.OAuthProvisionKey != "dev-provision-key" {
		t.Errorf("oauth_provision_key = %q", out.OAuthProvisionKey)
	}
	data, err := out.ToYAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(string(data), "oauth_provision_key: dev-provision-key") {
		t.Errorf("provision key missing from yaml:\n%s", data)
	}
}

func TestGenerateRequiresGateway(t *testing.T) {
	conf, region := loadTestConfig(t)
	bare := *region
	bare.Kong = nil
	if _, err := Generate("../filebacked/testdata", conf, &bare); err == nil {
		t.Fatalf("expected a region without kong to fail")
	}
}

func TestCRDEnvelope(t *testing.T) {
	conf, region := loadTestConfig(t)
	out, err := Generate("../filebacked/testdata", conf, region)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := NewCRD(region.Name, out).ToYAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	s := string(data)
	for _, want := range []string{"kind: KongConfig", "name: shipcat-kong-dev-uk", "apis:"} {
		if !strings.Contains(s, want) {
			t.Errorf("crd yaml missing %q:\n%s", want, s)
		}
	}
}
