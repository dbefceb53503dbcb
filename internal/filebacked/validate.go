// Where: cli/internal/filebacked/validate.go
// What: Bulk manifest validation across a region.
// Why: Reconcile and CI runs validate hundreds of services, so the
// work is spread over a bounded worker group.
package filebacked

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/clux/shipcat/internal/config"
)

const validateConcurrency = 8

// Validate loads and verifies a single service in a region.
func Validate(root, service string, conf *config.Config, region *config.Region) error {
	mf, err := LoadManifest(root, service, conf, region, nil)
	if err != nil {
		return err
	}
	if err := mf.VerifyRegion(); err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}
	return mf.Verify(conf.VerifyParams())
}

// ValidateAll verifies every service enabled in a region concurrently.
// The first failure cancels the remaining loads.
func ValidateAll(ctx context.Context, root string, conf *config.Config, region *config.Region) error {
	names, err := ServiceNames(root)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(validateConcurrency)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			simple, err := LoadSimple(root, name, conf, region)
			if err != nil {
				return err
			}
			if !simple.Enabled || simple.External {
				return nil
			}
			return Validate(root, name, conf, region)
		})
	}
	return g.Wait()
}
