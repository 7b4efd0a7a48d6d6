// Package deps checks that the external binaries regift shells out to are
// installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names a binary and what regift uses it for.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status is the outcome of resolving one Requirement on PATH.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
	Version     string `json:"version,omitempty"`
}

// Resolve looks up a single requirement. Bare names go through PATH; paths
// must point at an executable file.
func Resolve(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
	}
	switch _, err := exec.LookPath(status.Command); {
	case status.Command == "":
		status.Detail = "command not configured"
	case err != nil:
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
	default:
		status.Available = true
	}
	return status
}

// CheckBinaries resolves every requirement, keeping input order.
func CheckBinaries(requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		out[i] = Resolve(req)
	}
	return out
}
