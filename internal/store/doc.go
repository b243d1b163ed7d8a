// Package store persists workspace documents as JSON files.
//
// Two documents are kept: the workspace definitions (the potentially
// large application lists) and the per-workspace toolbar button configs.
// Both are written atomically via write-temp-then-rename so a crashed
// write never leaves a partial file behind. Malformed or missing files
// degrade to empty defaults instead of failing.
//
// Watcher wraps fsnotify with a restart-on-activity debounce timer so
// editor-style multi-event write bursts collapse into one invalidation.
package store
