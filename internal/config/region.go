// Where: cli/internal/config/region.go
// What: Region definitions within the manifests repository.
// Why: Each region carries its own cluster, vault, kong, and kafka settings.
package config

import (
	"fmt"
	"strings"
)

// VaultConfig locates the secret store for a region.
type VaultConfig struct {
	// URL of the vault server, e.g. https://vault.example.com:8200
	URL string `yaml:"url" json:"url"`
	// Folder underneath the secret mount holding this region's services.
	Folder string `yaml:"folder" json:"folder"`
}

func (v VaultConfig) Verify() error {
	if v.URL == "" {
		return fmt.Errorf("vault url is required")
	}
	if v.Folder == "" {
		return fmt.Errorf("vault folder is required")
	}
	if strings.HasSuffix(v.Folder, "/") {
		return fmt.Errorf("vault folder must not end with a slash")
	}
	return nil
}

// KongRegion holds the region-wide kong settings merged into the
// generated gateway config next to the per-service apis.
type KongRegion struct {
	// ConfigURL is the admin endpoint of the kong cluster.
	ConfigURL string `yaml:"config_url" json:"config_url"`
	// Base domain the gateway serves, e.g. dev.babylontech.co.uk
	BaseURL string `yaml:"base_url" json:"base_url"`
	// TokenExpiration for issued consumer tokens, in seconds.
	TokenExpiration uint32 `yaml:"kong_token_expiration,omitempty" json:"kong_token_expiration,omitempty"`
	// OAuthProvisionKey for the oauth2 plugin's provision flow.
	OAuthProvisionKey string `yaml:"oauth_provision_key,omitempty" json:"oauth_provision_key,omitempty"`
	// ConsumersFile with static consumer credentials, if any.
	Consumers map[string]interface{} `yaml:"consumers,omitempty" json:"consumers,omitempty"`
}

// KafkaConfig lists the managed brokers of a region.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" json:"brokers"`
}

// Region is one deployable kube context with its integrations.
type Region struct {
	// Name of the region, e.g. dev-uk.
	Name string `yaml:"name" json:"name"`
	// Cluster is the kube context to target.
	Cluster string `yaml:"cluster" json:"cluster"`
	// Namespace services are deployed into.
	Namespace string `yaml:"namespace" json:"namespace"`
	// Environment class of the region, e.g. dev, staging, prod.
	Environment string `yaml:"environment" json:"environment"`

	Vault VaultConfig  `yaml:"vault" json:"vault"`
	Kong  *KongRegion  `yaml:"kong,omitempty" json:"kong,omitempty"`
	Kafka *KafkaConfig `yaml:"kafka,omitempty" json:"kafka,omitempty"`

	// Env vars injected into every service deployed in the region.
	// Services may override individual keys in their own manifests.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// BaseURLs exposed to manifest templating, e.g. services, external.
	BaseURLs map[string]string `yaml:"baseUrls,omitempty" json:"baseUrls,omitempty"`

	// VersioningScheme constrains service versions, Semver or GitShaOrSemver.
	VersioningScheme string `yaml:"versioningScheme,omitempty" json:"versioningScheme,omitempty"`
}

func (r *Region) Verify() error {
	if r.Name == "" {
		return fmt.Errorf("regions need a name")
	}
	if r.Cluster == "" {
		return fmt.Errorf("region %s needs a cluster", r.Name)
	}
	if r.Namespace == "" {
		return fmt.Errorf("region %s needs a namespace", r.Name)
	}
	if r.Environment == "" {
		return fmt.Errorf("region %s needs an environment", r.Name)
	}
	if err := r.Vault.Verify(); err != nil {
		return fmt.Errorf("region %s: %w", r.Name, err)
	}
	switch r.VersioningScheme {
	case "", "Semver", "GitShaOrSemver":
	default:
		return fmt.Errorf("region %s has unknown versioningScheme %q", r.Name, r.VersioningScheme)
	}
	return nil
}

// VerifyVersion checks a version string against the region's scheme.
func (r *Region) VerifyVersion(version string) error {
	switch r.VersioningScheme {
	case "Semver":
		if !semverRe.MatchString(version) {
			return fmt.Errorf("version %q is not semver in region %s", version, r.Name)
		}
	case "GitShaOrSemver", "":
		if !semverRe.MatchString(version) && !gitShaRe.MatchString(version) {
			return fmt.Errorf("version %q is neither semver nor a git sha in region %s", version, r.Name)
		}
	}
	return nil
}
