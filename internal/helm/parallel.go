// Where: cli/internal/helm/parallel.go
// What: Mass upgrade across a region with a fixed worker pool.
// Why: Reconcile touches every service in a region; failures must not
// stop the remaining upgrades mid-flight.
package helm

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/clux/shipcat/internal/manifest"
)

// DefaultWorkers used by mass upgrades when the caller does not choose.
const DefaultWorkers = 4

// Result is the outcome of one service upgrade in a mass run.
type Result struct {
	Service string
	Output  string
	Err     error
}

// MassUpgrade runs the selected mode for every manifest using a fixed
// pool of workers. Every upgrade runs to completion; the returned error
// is the first failure in input order, after all results are in.
func MassUpgrade(ctx context.Context, r CommandRunner, manifests []*manifest.Manifest, mode UpgradeMode, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	tmpDir, err := os.MkdirTemp("", "shipcat-reconcile-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	jobs := make(chan *manifest.Manifest)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				out, err := upgradeOne(ctx, r, m, mode, tmpDir)
				results <- Result{Service: m.Name, Output: out, Err: err}
			}
		}()
	}

	go func() {
		for _, m := range manifests {
			jobs <- m
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	byService := make(map[string]Result, len(manifests))
	for res := range results {
		byService[res.Service] = res
	}

	ordered := make([]Result, 0, len(manifests))
	var firstErr error
	for _, m := range manifests {
		res := byService[m.Name]
		ordered = append(ordered, res)
		if res.Err != nil && firstErr == nil {
			firstErr = res.Err
		}
	}
	return ordered, firstErr
}

func upgradeOne(ctx context.Context, r CommandRunner, m *manifest.Manifest, mode UpgradeMode, tmpDir string) (string, error) {
	valuesPath := filepath.Join(tmpDir, ValuesFileName(m.Name))
	if _, err := WriteValues(m, valuesPath); err != nil {
		return "", err
	}
	u, err := NewUpgradeData(m, valuesPath, mode)
	if err != nil {
		return "", err
	}
	return Upgrade(ctx, r, u)
}
