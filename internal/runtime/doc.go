// Package runtime implements the action provider runtime.
//
// Providers are pluggable sources of toolbar actions. Each provider
// implements the base Provider contract (identity, discovery, invocation)
// and may additionally implement GroupBuilder or ChangeNotifier; optional
// capabilities are detected by type assertion at registration time.
//
// The Registry routes discovery, group-building and invocation calls by
// provider id so callers never hold a provider reference directly, and
// fans every provider's change notifications into one runtime-level
// stream that UI consumers subscribe to.
//
// Example Usage:
//
//	reg := runtime.NewRegistry(logger, metrics)
//	reg.Register(workspace.NewProvider(...))
//	group, err := reg.CreateGroup(ctx, "workspaces")
package runtime
