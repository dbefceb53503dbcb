// Where: cli/internal/manifest/kong.go
// What: Kong gateway api configuration for a service.
// Why: Rendered into the region-wide gateway config consumed by the configurator.
package manifest

// Authentication mode for a kong api.
type Authentication string

const (
	AuthenticationNone   Authentication = "none"
	AuthenticationOAuth2 Authentication = "oauth2"
	AuthenticationJwt    Authentication = "jwt"
)

// Authorization settings for JWT validation on a kong api.
type Authorization struct {
	AllowedAudiences    []string `yaml:"allowed_audiences" json:"allowed_audiences"`
	AllowAnonymous      bool     `yaml:"allow_anonymous" json:"allow_anonymous"`
	RemoveInvalidTokens bool     `yaml:"remove_invalid_tokens" json:"remove_invalid_tokens"`
	RequiredScopes      []string `yaml:"required_scopes" json:"required_scopes"`
	AllowCookies        bool     `yaml:"allow_cookies" json:"allow_cookies"`
}

// Cors plugin settings passed through to kong.
type Cors struct {
	Origin         string `yaml:"origin" json:"origin"`
	Methods        string `yaml:"methods" json:"methods"`
	Headers        string `yaml:"headers" json:"headers"`
	ExposedHeaders string `yaml:"exposed_headers" json:"exposed_headers"`
	Credentials    bool   `yaml:"credentials" json:"credentials"`
	MaxAge         string `yaml:"max_age" json:"max_age"`
	Enabled        bool   `yaml:"enabled" json:"enabled"`
}

// Kong is a fully built gateway api entry for one service.
type Kong struct {
	Name               string   `yaml:"name" json:"name"`
	UpstreamURL        string   `yaml:"upstream_url" json:"upstream_url"`
	Internal           bool     `yaml:"internal" json:"internal"`
	PubliclyAccessible bool     `yaml:"publiclyAccessible" json:"publiclyAccessible"`
	URIs               *string  `yaml:"uris,omitempty" json:"uris,omitempty"`
	Hosts              []string `yaml:"hosts,omitempty" json:"hosts,omitempty"`
	StripURI           bool     `yaml:"strip_uri" json:"strip_uri"`
	PreserveHost       bool     `yaml:"preserve_host" json:"preserve_host"`
	Cors               *Cors    `yaml:"cors,omitempty" json:"cors,omitempty"`

	Authorization *Authorization `yaml:"authorization,omitempty" json:"authorization,omitempty"`
	Auth          Authentication `yaml:"auth,omitempty" json:"auth,omitempty"`

	// Legacy cookie based auth for front-end applications, superseded
	// by authorization and mutually exclusive with it.
	CookieAuth     bool `yaml:"cookie_auth" json:"cookie_auth"`
	CookieAuthCsrf bool `yaml:"cookie_auth_csrf" json:"cookie_auth_csrf"`

	// OAuth2Anonymous names the anonymous consumer allowed through an
	// authenticated api, matching the region's kong consumer config.
	OAuth2Anonymous       *string `yaml:"oauth2_anonymous,omitempty" json:"oauth2_anonymous,omitempty"`
	OAuth2ExtensionPlugin *bool   `yaml:"oauth2_extension_plugin,omitempty" json:"oauth2_extension_plugin,omitempty"`

	AdditionalInternalIPs []string `yaml:"additional_internal_ips,omitempty" json:"additional_internal_ips,omitempty"`

	UpstreamConnectTimeout *uint32 `yaml:"upstream_connect_timeout,omitempty" json:"upstream_connect_timeout,omitempty"`
	UpstreamSendTimeout    *uint32 `yaml:"upstream_send_timeout,omitempty" json:"upstream_send_timeout,omitempty"`
	UpstreamReadTimeout    *uint32 `yaml:"upstream_read_timeout,omitempty" json:"upstream_read_timeout,omitempty"`

	AddHeaders map[string]string `yaml:"add_headers,omitempty" json:"add_headers,omitempty"`
}
