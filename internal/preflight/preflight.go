package preflight

import (
	"context"

	"revostream/internal/config"
	"revostream/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the daemon startup checks for cfg. The API bind check is
// skipped when checkBind is false, which the CLI uses while a daemon already
// owns the address.
func RunAll(ctx context.Context, cfg *config.Config, checkBind bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if dir := cfg.RecordDir(); dir != "" {
		results = append(results, CheckDirectoryAccess("Recording directory", dir))
	}
	if checkBind {
		results = append(results, CheckBind(ctx, cfg.Paths.APIBind))
	}
	if target := cfg.StreamTarget(); target != "" {
		results = append(results, CheckStreamTarget(target))
	}
	for _, status := range deps.CheckBinaries(deps.SystemRequirements()) {
		results = append(results, fromDependency(status))
	}
	return results
}

// Failed returns the results that did not pass and are not optional.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
