// Where: cli/internal/filebacked/kong.go
// What: Kong api fragments with auth resolution and host building.
// Why: Gateway config mixes service manifests with region-level defaults,
// including implicit in-cluster upstream urls.
package filebacked

import (
	"fmt"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/merge"
)

// AuthorizationSource is the JWT authorization fragment.
type AuthorizationSource struct {
	Enabled             *bool     `yaml:"enabled"`
	AllowedAudiences    *[]string `yaml:"allowed_audiences"`
	AllowAnonymous      *bool     `yaml:"allow_anonymous"`
	RemoveInvalidTokens *bool     `yaml:"remove_invalid_tokens"`
	RequiredScopes      *[]string `yaml:"required_scopes"`
	AllowCookies        *bool     `yaml:"allow_cookies"`
}

func (a AuthorizationSource) Merge(other AuthorizationSource) AuthorizationSource {
	return AuthorizationSource{
		Enabled:             merge.Option(a.Enabled, other.Enabled),
		AllowedAudiences:    merge.Option(a.AllowedAudiences, other.AllowedAudiences),
		AllowAnonymous:      merge.Option(a.AllowAnonymous, other.AllowAnonymous),
		RemoveInvalidTokens: merge.Option(a.RemoveInvalidTokens, other.RemoveInvalidTokens),
		RequiredScopes:      merge.Option(a.RequiredScopes, other.RequiredScopes),
		AllowCookies:        merge.Option(a.AllowCookies, other.AllowCookies),
	}
}

// Build yields nil unless authorization was enabled.
func (a AuthorizationSource) Build() (*manifest.Authorization, error) {
	if a.Enabled == nil || !*a.Enabled {
		return nil, nil
	}
	var audiences []string
	if a.AllowedAudiences != nil {
		audiences = *a.AllowedAudiences
	}
	if len(audiences) == 0 {
		return nil, fmt.Errorf("allowed_audiences must contain at least one audience")
	}
	removeInvalid := true
	if a.RemoveInvalidTokens != nil {
		removeInvalid = *a.RemoveInvalidTokens
	}
	authz := &manifest.Authorization{
		AllowedAudiences:    audiences,
		RemoveInvalidTokens: removeInvalid,
	}
	if a.AllowAnonymous != nil {
		authz.AllowAnonymous = *a.AllowAnonymous
	}
	if a.RequiredScopes != nil {
		authz.RequiredScopes = *a.RequiredScopes
	}
	if a.AllowCookies != nil {
		authz.AllowCookies = *a.AllowCookies
	}
	return authz, nil
}

// KongSource is the gateway api fragment of a service manifest.
type KongSource struct {
	UpstreamURL *string   `yaml:"upstream_url"`
	URIs        *string   `yaml:"uris"`
	Hosts       *[]string `yaml:"hosts"`
	Host        *string   `yaml:"host"`

	StripURI     *bool          `yaml:"strip_uri"`
	PreserveHost *bool          `yaml:"preserve_host"`
	Cors         *manifest.Cors `yaml:"cors"`

	Internal              *bool                    `yaml:"internal"`
	PubliclyAccessible    *bool                    `yaml:"publiclyAccessible"`
	Unauthenticated       *bool                    `yaml:"unauthenticated"`
	Auth                  *manifest.Authentication `yaml:"auth"`
	Authorization         AuthorizationSource      `yaml:"authorization"`
	CookieAuth            *bool                    `yaml:"cookie_auth"`
	CookieAuthCsrf        *bool                    `yaml:"cookie_auth_csrf"`
	OAuth2Anonymous       *string                  `yaml:"oauth2_anonymous"`
	OAuth2ExtensionPlugin *bool                    `yaml:"oauth2_extension_plugin"`
	AdditionalInternalIPs *[]string                `yaml:"additional_internal_ips"`

	UpstreamConnectTimeout *uint32 `yaml:"upstream_connect_timeout"`
	UpstreamSendTimeout    *uint32 `yaml:"upstream_send_timeout"`
	UpstreamReadTimeout    *uint32 `yaml:"upstream_read_timeout"`

	AddHeaders map[string]string `yaml:"add_headers"`
}

func (k KongSource) Merge(other KongSource) KongSource {
	return KongSource{
		UpstreamURL:            merge.Option(k.UpstreamURL, other.UpstreamURL),
		URIs:                   merge.Option(k.URIs, other.URIs),
		Hosts:                  merge.Option(k.Hosts, other.Hosts),
		Host:                   merge.Option(k.Host, other.Host),
		StripURI:               merge.Option(k.StripURI, other.StripURI),
		PreserveHost:           merge.Option(k.PreserveHost, other.PreserveHost),
		Cors:                   merge.Option(k.Cors, other.Cors),
		Internal:               merge.Option(k.Internal, other.Internal),
		PubliclyAccessible:     merge.Option(k.PubliclyAccessible, other.PubliclyAccessible),
		Unauthenticated:        merge.Option(k.Unauthenticated, other.Unauthenticated),
		Auth:                   merge.Option(k.Auth, other.Auth),
		Authorization:          k.Authorization.Merge(other.Authorization),
		CookieAuth:             merge.Option(k.CookieAuth, other.CookieAuth),
		CookieAuthCsrf:         merge.Option(k.CookieAuthCsrf, other.CookieAuthCsrf),
		OAuth2Anonymous:        merge.Option(k.OAuth2Anonymous, other.OAuth2Anonymous),
		OAuth2ExtensionPlugin:  merge.Option(k.OAuth2ExtensionPlugin, other.OAuth2ExtensionPlugin),
		AdditionalInternalIPs:  merge.Option(k.AdditionalInternalIPs, other.AdditionalInternalIPs),
		UpstreamConnectTimeout: merge.Option(k.UpstreamConnectTimeout, other.UpstreamConnectTimeout),
		UpstreamSendTimeout:    merge.Option(k.UpstreamSendTimeout, other.UpstreamSendTimeout),
		UpstreamReadTimeout:    merge.Option(k.UpstreamReadTimeout, other.UpstreamReadTimeout),
		AddHeaders:             merge.Map(k.AddHeaders, other.AddHeaders),
	}
}

// Build resolves the fragment into a gateway api entry, or nil when the
// fragment routes nothing (no hosts and no uris).
func (k KongSource) Build(service string, region *config.Region) (*manifest.Kong, error) {
	hosts, err := k.buildHosts(region)
	if err != nil {
		return nil, err
	}
	if len(hosts) == 0 && k.URIs == nil {
		return nil, nil
	}

	auth, authorization, err := k.buildAuth()
	if err != nil {
		return nil, err
	}
	if authorization != nil {
		if k.CookieAuth != nil {
			return nil, fmt.Errorf("cookie_auth and authorization properties are mutually exclusive")
		}
		if k.CookieAuthCsrf != nil {
			return nil, fmt.Errorf("cookie_auth_csrf and authorization properties are mutually exclusive")
		}
		if k.OAuth2Anonymous != nil {
			return nil, fmt.Errorf("oauth2_anonymous and authorization properties are mutually exclusive")
		}
		if k.OAuth2ExtensionPlugin != nil {
			return nil, fmt.Errorf("oauth2_extension_plugin and authorization properties are mutually exclusive")
		}
	}

	out := &manifest.Kong{
		Name:          service,
		UpstreamURL:   k.buildUpstreamURL(service, region),
		URIs:          k.URIs,
		Hosts:         hosts,
		PreserveHost:  true,
		Cors:          k.Cors,
		Auth:          auth,
		Authorization: authorization,

		OAuth2Anonymous:       k.OAuth2Anonymous,
		OAuth2ExtensionPlugin: k.OAuth2ExtensionPlugin,

		UpstreamConnectTimeout: k.UpstreamConnectTimeout,
		UpstreamSendTimeout:    k.UpstreamSendTimeout,
		UpstreamReadTimeout:    k.UpstreamReadTimeout,
		AddHeaders:             k.AddHeaders,
	}
	if k.Internal != nil {
		out.Internal = *k.Internal
	}
	if k.PubliclyAccessible != nil {
		out.PubliclyAccessible = *k.PubliclyAccessible
	}
	if k.StripURI != nil {
		out.StripURI = *k.StripURI
	}
	if k.PreserveHost != nil {
		out.PreserveHost = *k.PreserveHost
	}
	if k.CookieAuth != nil {
		out.CookieAuth = *k.CookieAuth
	}
	if k.CookieAuthCsrf != nil {
		out.CookieAuthCsrf = *k.CookieAuthCsrf
	}
	if k.AdditionalInternalIPs != nil {
		out.AdditionalInternalIPs = *k.AdditionalInternalIPs
	}
	return out, nil
}

// buildUpstreamURL defaults to the in-cluster dns name of the service.
func (k KongSource) buildUpstreamURL(service string, region *config.Region) string {
	if k.UpstreamURL != nil {
		return *k.UpstreamURL
	}
	return fmt.Sprintf("http://%s.%s.svc.cluster.local", service, region.Namespace)
}

func (k KongSource) buildAuth() (manifest.Authentication, *manifest.Authorization, error) {
	authorization, err := k.Authorization.Build()
	if err != nil {
		return "", nil, err
	}
	unauthenticated := k.Unauthenticated != nil && *k.Unauthenticated

	if unauthenticated {
		if k.Auth != nil {
			return "", nil, fmt.Errorf("unauthenticated and auth properties are mutually exclusive")
		}
		if authorization != nil {
			return "", nil, fmt.Errorf("unauthenticated and authorization properties are mutually exclusive")
		}
		return manifest.AuthenticationNone, nil, nil
	}
	if authorization != nil {
		if k.Auth != nil && *k.Auth != manifest.AuthenticationJwt {
			return "", nil, fmt.Errorf("auth must be unset or JWT if authorization is enabled")
		}
		return manifest.AuthenticationJwt, authorization, nil
	}
	if k.Auth != nil {
		return *k.Auth, nil, nil
	}
	return manifest.AuthenticationOAuth2, nil, nil
}

func (k KongSource) buildHosts(region *config.Region) ([]string, error) {
	var hosts []string
	if k.Hosts != nil {
		hosts = *k.Hosts
	}
	switch {
	case k.Host == nil:
		return hosts, nil
	case len(hosts) == 0:
		if region.Kong == nil || region.Kong.BaseURL == "" {
			return nil, fmt.Errorf("kong.host needs a base_url in the region kong config")
		}
		return []string{fmt.Sprintf("%s%s", *k.Host, region.Kong.BaseURL)}, nil
	default:
		return nil, fmt.Errorf("kong.hosts and kong.host are mutually exclusive")
	}
}
