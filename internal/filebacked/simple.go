// Where: cli/internal/filebacked/simple.go
// What: Cheap manifest views that skip secret and template resolution.
// Why: Listing and region filtering should not pay the full build cost.
package filebacked

import (
	"fmt"

	"github.com/clux/shipcat/internal/manifest"
)

// BaseManifest is the region-independent identity of a service.
type BaseManifest struct {
	Name     string
	Regions  []string
	Metadata manifest.Metadata
}

// SimpleManifest is a region-resolved summary without templating or
// config file loading.
type SimpleManifest struct {
	Base   BaseManifest
	Region string

	// Enabled in the requested region.
	Enabled bool
	// External reference-only service.
	External bool

	Image    string
	Version  *string
	KongAPIs []manifest.Kong
}

func (s *SimpleManifest) String() string {
	return fmt.Sprintf("SimpleManifest{name: %s, region: %s}", s.Base.Name, s.Region)
}
