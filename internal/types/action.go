package types

// ActionKind classifies how an action behaves when invoked.
type ActionKind string

const (
	// ActionCommand runs a provider-internal command (toggle, capture, ...).
	ActionCommand ActionKind = "command"
	// ActionLaunch starts one or more external applications.
	ActionLaunch ActionKind = "launch"
)

// ActionDescriptor describes one invocable action offered by a provider.
// Descriptors are produced fresh on every discovery call and never
// persisted; their only identity is (ProviderID, ID).
type ActionDescriptor struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle,omitempty"`
	Kind       ActionKind `json:"kind"`
	GroupHint  string     `json:"group_hint,omitempty"`
	Order      float64    `json:"order"`
	Icon       string     `json:"icon,omitempty"`
	CanExecute bool       `json:"can_execute"`
	Keywords   []string   `json:"keywords,omitempty"`
}

// ActionResult is the outcome of invoking an action. Expected failures
// (unknown action id, disabled feature) are reported as Ok=false rather
// than as errors.
type ActionResult struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// ProviderInfo holds display metadata for a registered provider.
type ProviderInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolbarButton is the UI-facing projection of one action.
type ToolbarButton struct {
	ProviderID string  `json:"provider_id"`
	ActionID   string  `json:"action_id"`
	Title      string  `json:"title"`
	Icon       string  `json:"icon,omitempty"`
	Enabled    bool    `json:"enabled"`
	Order      float64 `json:"order"`
}

// ButtonGroup is a named, orderable group of toolbar buttons. Providers
// produce groups; the rendering layer owns them afterwards.
type ButtonGroup struct {
	Name    string          `json:"name"`
	Order   float64         `json:"order"`
	Buttons []ToolbarButton `json:"buttons"`
}

// ProgressSink receives progress updates during a long-running invocation.
type ProgressSink interface {
	Report(percent float64, message string)
}
