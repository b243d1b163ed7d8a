// Package server wires the toolbar daemon together.
//
// Responsibilities:
//   - Load configuration and construct the logger
//   - Open the workspace store and build the providers
//   - Register providers with the runtime registry
//   - Expose the runtime over HTTP (Gin) and WebSocket
//   - Graceful shutdown and resource cleanup
//
// Provider construction failures are logged and the provider is skipped;
// the toolbar degrades to fewer groups instead of failing to start.
package server
