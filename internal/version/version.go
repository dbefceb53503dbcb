// Where: cli/internal/version/version.go
// What: Version information retrieval.
// Why: Release builds link meta.Version; dev builds fall back to vcs info.
package version

import (
	"fmt"
	"runtime/debug"

	"github.com/clux/shipcat/internal/meta"
)

// GetVersion returns the linked release version when set, otherwise the
// VCS revision from build info, marked dirty when the tree was modified.
func GetVersion() string {
	if meta.Version != "dev" {
		return meta.Version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return meta.Version
	}

	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			if setting.Value == "true" {
				modified = true
			}
		}
	}

	if revision == "" {
		return meta.Version
	}
	if modified {
		return fmt.Sprintf("%s (dirty)", revision)
	}
	return revision
}
