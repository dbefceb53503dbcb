// Where: cli/internal/filebacked/load.go
// What: Loads manifest fragments off disk and runs the merge cascade.
// Why: One entry point per lifecycle stage keeps callers from
// re-implementing the layering order.
package filebacked

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clux/shipcat/internal/config"
	"github.com/clux/shipcat/internal/manifest"
	"github.com/clux/shipcat/internal/meta"
)

// FromGlobal seeds the lowest precedence defaults from shipcat.conf.
func FromGlobal(conf *config.Config) ManifestDefaults {
	var d ManifestDefaults
	if conf.Defaults.ImagePrefix != "" {
		prefix := conf.Defaults.ImagePrefix
		d.ImagePrefix = &prefix
	}
	if conf.Defaults.Chart != "" {
		chart := conf.Defaults.Chart
		d.Chart = &chart
	}
	if conf.Defaults.ReplicaCount != 0 {
		replicas := conf.Defaults.ReplicaCount
		d.ReplicaCount = &replicas
	}
	return d
}

// FromRegion layers region scoped defaults on top of the global ones.
// Region env vars cascade under every service's own env, so a service
// redefining a key keeps its value.
func FromRegion(defaults ManifestDefaults, region *config.Region) ManifestDefaults {
	if len(region.Env) == 0 {
		return defaults
	}
	env := make(EnvVarsSource, len(region.Env))
	for k, v := range region.Env {
		env[k] = RelaxedString(v)
	}
	defaults.Env = defaults.Env.Merge(env)
	return defaults
}

// Overrides applied after every file layer, typically from CLI flags.
type LoadOverrides struct {
	Version *string
}

func (o LoadOverrides) toManifestOverrides() ManifestOverrides {
	return ManifestOverrides{Version: o.Version}
}

func servicePath(root, service string) string {
	return filepath.Join(root, meta.ServicesDir, service)
}

// decodeSource reads one fragment layer with strict field checking so
// typos in manifests fail loudly rather than being silently dropped.
func decodeSource(path string) (ManifestSource, error) {
	var src ManifestSource
	f, err := os.Open(path)
	if err != nil {
		return src, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&src); err != nil {
		if errors.Is(err, io.EOF) {
			return src, fmt.Errorf("%s is empty", path)
		}
		return src, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// decodeOverrides reads an environment or region sibling file.
func decodeOverrides(path string) (ManifestOverrides, bool, error) {
	var ov ManifestOverrides
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ov, false, nil
		}
		return ov, false, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&ov); err != nil {
		if errors.Is(err, io.EOF) {
			return ov, false, fmt.Errorf("%s is empty", path)
		}
		return ov, false, fmt.Errorf("%s: %w", path, err)
	}
	return ov, true, nil
}

// loadMerged runs the full cascade for one service in one region:
// global defaults, then shipcat.yml, then the environment and region
// sibling files, then any caller overrides.
func loadMerged(root, service string, conf *config.Config, region *config.Region, extra *LoadOverrides) (ManifestSource, error) {
	dir := servicePath(root, service)
	src, err := decodeSource(filepath.Join(dir, meta.ManifestFile))
	if err != nil {
		return ManifestSource{}, err
	}
	if src.Name != nil && *src.Name != service {
		return ManifestSource{}, fmt.Errorf("service name %q does not match its folder %q", *src.Name, service)
	}

	defaults := FromRegion(FromGlobal(conf), region)
	src = src.MergeDefaults(defaults)

	for _, layer := range []string{region.Environment, region.Name} {
		ov, found, err := decodeOverrides(filepath.Join(dir, layer+".yml"))
		if err != nil {
			return ManifestSource{}, err
		}
		if found {
			src = src.MergeOverrides(ov)
		}
	}

	if extra != nil {
		src = src.MergeOverrides(extra.toManifestOverrides())
	}
	return src, nil
}

// LoadManifest resolves the complete Base-state manifest for a service
// in a region, including template file content.
func LoadManifest(root, service string, conf *config.Config, region *config.Region, extra *LoadOverrides) (*manifest.Manifest, error) {
	src, err := loadMerged(root, service, conf, region, extra)
	if err != nil {
		return nil, err
	}
	return src.Build(conf, region, root)
}

// LoadSimple resolves the lightweight region view of a service.
func LoadSimple(root, service string, conf *config.Config, region *config.Region) (SimpleManifest, error) {
	src, err := loadMerged(root, service, conf, region, nil)
	if err != nil {
		return SimpleManifest{}, err
	}
	return src.BuildSimple(conf, region)
}

// LoadMetadata resolves only the region independent identity fields.
func LoadMetadata(root, service string, conf *config.Config) (BaseManifest, error) {
	dir := servicePath(root, service)
	src, err := decodeSource(filepath.Join(dir, meta.ManifestFile))
	if err != nil {
		return BaseManifest{}, err
	}
	if src.Name != nil && *src.Name != service {
		return BaseManifest{}, fmt.Errorf("service name %q does not match its folder %q", *src.Name, service)
	}
	return src.BuildBase(conf)
}

// ServiceNames lists every service folder in the manifests repository.
func ServiceNames(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, meta.ServicesDir))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Available lists the services that are enabled in a region and run on
// the cluster, in sorted order. External services are excluded.
func Available(root string, conf *config.Config, region *config.Region) ([]SimpleManifest, error) {
	names, err := ServiceNames(root)
	if err != nil {
		return nil, err
	}
	out := make([]SimpleManifest, 0, len(names))
	for _, name := range names {
		simple, err := LoadSimple(root, name, conf, region)
		if err != nil {
			return nil, err
		}
		if simple.Enabled && !simple.External {
			out = append(out, simple)
		}
	}
	return out, nil
}

// All lists the base identity of every service regardless of region.
func All(root string, conf *config.Config) ([]BaseManifest, error) {
	names, err := ServiceNames(root)
	if err != nil {
		return nil, err
	}
	out := make([]BaseManifest, 0, len(names))
	for _, name := range names {
		base, err := LoadMetadata(root, name, conf)
		if err != nil {
			return nil, err
		}
		out = append(out, base)
	}
	return out, nil
}
