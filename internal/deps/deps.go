package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary RevoStream shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// SystemRequirements lists the binaries the daemon uses. None are needed to
// drive the engine itself.
func SystemRequirements() []Requirement {
	return []Requirement{
		{
			Name:        "pactl",
			Command:     "pactl",
			Description: "Lists PulseAudio capture and monitor sources",
			Optional:    true,
		},
	}
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch path, err := exec.LookPath(cmd); {
		case cmd == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		default:
			status.Available = true
			status.Path = path
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the unavailable entries of statuses, skipping optional
// ones unless includeOptional is set.
func Missing(statuses []Status, includeOptional bool) []Status {
	var out []Status
	for _, s := range statuses {
		if s.Available || (s.Optional && !includeOptional) {
			continue
		}
		out = append(out, s)
	}
	return out
}
