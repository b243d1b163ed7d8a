// Package platform supplies the OS-facing collaborators. Window and
// media session enumeration require OS-specific bindings that are
// injected by the host build; this default wiring provides process
// launching only, so the daemon runs (with a degraded workspace
// provider) on any platform.
package platform

import (
	"context"
	"os/exec"

	"github.com/vanzue/toptoolbar-sub001/internal/server"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

// Collaborators returns the default collaborator set.
func Collaborators() server.Collaborators {
	return server.Collaborators{
		Launcher: execLauncher{},
	}
}

// execLauncher starts processes directly through the OS.
type execLauncher struct{}

func (execLauncher) Launch(ctx context.Context, command string, args []string, cwd string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = cwd
	return cmd.Start()
}

var _ types.Launcher = execLauncher{}
