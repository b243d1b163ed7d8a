package types

import "context"

// Launcher starts external processes. Resolving a command string to an
// executable and the actual spawn mechanics live behind this interface.
type Launcher interface {
	Launch(ctx context.Context, command string, args []string, cwd string) error
}

// WindowEnumerator observes the current OS session.
type WindowEnumerator interface {
	Windows(ctx context.Context) ([]WindowInfo, error)
	Monitors(ctx context.Context) ([]MonitorDefinition, error)
}

// IconResolver resolves an icon reference for an executable path.
type IconResolver interface {
	Resolve(ctx context.Context, path string) (string, error)
}

// Notifier surfaces short user-facing notifications.
type Notifier interface {
	Notify(title, message string)
}
