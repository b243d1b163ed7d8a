// Package workspace implements the workspace snapshot/restore provider.
//
// A workspace is a captured set of running applications plus the monitor
// topology at capture time. The provider discovers one launch action per
// saved workspace, rebuilds its toolbar group from persisted button
// configs, and re-identifies live windows against saved application
// definitions with a scored, multi-signal matcher.
//
// The cached record store keeps the last-known workspace summaries in
// memory, versioned, and is invalidated by a debounced file watch or by
// explicit mutation; a reload that observes no field-level difference is
// suppressed so the UI never re-renders for noisy file events.
package workspace
