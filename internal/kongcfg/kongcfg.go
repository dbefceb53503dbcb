// Where: cli/internal/kongcfg/kongcfg.go
// What: Region-wide kong gateway config generation.
// Why: The gateway consumes one declarative document per region,
// assembled from every enabled service's api entries.
package kongcfg

import (
	"fmt"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/filebacked"
	"github.com/clux/shipcat/internal/manifest"
)

// Output is the gateway document for one region.
type Output struct {
	// APIs keyed by api name, one or more per service.
	APIs map[string]manifest.Kong `json:"apis"`

	// Region-wide settings lifted from the region config.
	KongTokenExpiration uint32                 `json:"kong_token_expiration,omitempty"`
	OAuthProvisionKey   string                 `json:"oauth_provision_key,omitempty"`
	Consumers           map[string]interface{} `json:"consumers,omitempty"`
}

// Generate collects the kong api entries of every service available in
// the region into one gateway document.
func Generate(root string, conf *config.Config, region *config.Region) (*Output, error) {
	if region.Kong == nil {
		return nil, fmt.Errorf("region %s has no kong gateway configured", region.Name)
	}
	simples, err := filebacked.Available(root, conf, region)
	if err != nil {
		return nil, err
	}

	out := &Output{
		APIs:                map[string]manifest.Kong{},
		KongTokenExpiration: region.Kong.TokenExpiration,
		OAuthProvisionKey:   region.Kong.OAuthProvisionKey,
		Consumers:           region.Kong.Consumers,
	}
	for i := range simples {
		svc := simples[i].Base.Name
		for _, api := range simples[i].KongAPIs {
			name := api.Name
			if name == "" {
				name = svc
			}
			if _, taken := out.APIs[name]; taken {
				return nil, fmt.Errorf("duplicate kong api name %s in region %s", name, region.Name)
			}
			api.Name = name
			out.APIs[name] = api
		}
	}
	return out, nil
}

// ToYAML serializes the document through its json tags so key names
// match what the gateway configurator expects.
func (o *Output) ToYAML() ([]byte, error) {
	return sigsyaml.Marshal(o)
}
