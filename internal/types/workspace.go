package types

import "time"

// ApplicationDefinition is a persisted record of one application belonging
// to a workspace. At least one identity field should be non-empty for
// matching to work, but the model does not enforce it; absence degrades
// matching rather than failing.
type ApplicationDefinition struct {
	Name            string `json:"name,omitempty"`
	Path            string `json:"path,omitempty"`
	Title           string `json:"title,omitempty"`
	AppUserModelID  string `json:"app_user_model_id,omitempty"`
	PackageFullName string `json:"package_full_name,omitempty"`
	PwaAppID        string `json:"pwa_app_id,omitempty"`
}

// MonitorDefinition captures the display topology at snapshot time.
type MonitorDefinition struct {
	Number int `json:"number"`
	Dpi    int `json:"dpi,omitempty"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WorkspaceDefinition is the persisted aggregate describing one captured
// workspace: the applications that were running and the monitor layout at
// capture time.
type WorkspaceDefinition struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	CreationTime time.Time               `json:"creation_time"`
	Applications []ApplicationDefinition `json:"applications"`
	Monitors     []MonitorDefinition     `json:"monitors,omitempty"`
}

// WorkspaceButtonConfig holds per-workspace toolbar metadata, kept apart
// from WorkspaceDefinition so icon or ordering edits do not rewrite the
// application list.
type WorkspaceButtonConfig struct {
	WorkspaceID string  `json:"workspace_id"`
	Icon        string  `json:"icon,omitempty"`
	Enabled     bool    `json:"enabled"`
	SortOrder   float64 `json:"sort_order"`
}

// WindowInfo holds the observable attributes of a live window at query
// time. It exists only for the duration of a match operation and is never
// persisted.
type WindowInfo struct {
	Title           string
	ProcessName     string
	ProcessPath     string
	ProcessFileName string
	AppUserModelID  string
	PackageFullName string
}
