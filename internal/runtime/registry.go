package runtime

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/monitoring"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

// Provider is the base contract every action provider implements.
// Discover recomputes the action set from current state on every call and
// must stop promptly on context cancellation. Invoke reports expected
// failures through ActionResult.Ok=false; only genuine cancellation and
// programmer errors surface as non-nil errors.
type Provider interface {
	ID() string
	Info() types.ProviderInfo
	Discover(ctx context.Context) ([]types.ActionDescriptor, error)
	Invoke(ctx context.Context, actionID string, args map[string]interface{}, progress types.ProgressSink) (*types.ActionResult, error)
}

// GroupBuilder is the optional capability to build the toolbar group
// directly, applying persisted ordering and icon overrides.
type GroupBuilder interface {
	CreateGroup(ctx context.Context) (*types.ButtonGroup, error)
}

// ChangeNotifier is the optional capability to raise change notifications.
// The returned channel stays open for the provider's lifetime; events on
// it preserve the order of the underlying state transitions.
type ChangeNotifier interface {
	Changes() <-chan types.ChangeEvent
}

// Registry holds the set of registered providers keyed by id and routes
// calls to them. Registration happens once at startup; the provider map
// is read-mostly afterwards.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	hub       *Hub
	log       *logging.Logger
	metrics   *monitoring.Metrics
}

// NewRegistry creates an empty provider registry. metrics may be nil.
func NewRegistry(log *logging.Logger, metrics *monitoring.Metrics) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		hub:       newHub(metrics),
		log:       log,
		metrics:   metrics,
	}
}

// Register adds a provider. Ids are case-insensitive; registering an id
// twice replaces the earlier provider (last wins, logged). If the
// provider exposes the ChangeNotifier capability its events are forwarded
// into the runtime-level stream.
func (r *Registry) Register(p Provider) error {
	id := strings.ToLower(p.ID())
	if id == "" {
		return fmt.Errorf("provider id cannot be empty")
	}

	r.mu.Lock()
	if _, exists := r.providers[id]; exists {
		r.log.Warn("replacing previously registered provider", zap.String("provider", id))
	}
	r.providers[id] = p
	count := len(r.providers)
	r.mu.Unlock()

	if notifier, ok := p.(ChangeNotifier); ok {
		go r.hub.forward(id, notifier.Changes())
	}

	if r.metricsEnabled() {
		r.metrics.ProvidersActive.Set(float64(count))
	}

	r.hub.publish(types.ChangeEvent{ProviderID: id, Kind: types.ChangeProviderRegistered})
	r.log.Info("provider registered", zap.String("provider", id))
	return nil
}

// TryGet retrieves a provider by id.
func (r *Registry) TryGet(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[strings.ToLower(id)]
	return p, ok
}

// List returns info for all registered providers, sorted by id.
func (r *Registry) List() []types.ProviderInfo {
	r.mu.RLock()
	infos := make([]types.ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Discover runs discovery on one provider.
func (r *Registry) Discover(ctx context.Context, providerID string) ([]types.ActionDescriptor, error) {
	p, ok := r.TryGet(providerID)
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	if r.metricsEnabled() {
		r.metrics.DiscoveriesTotal.WithLabelValues(strings.ToLower(providerID)).Inc()
	}
	return p.Discover(ctx)
}

// DiscoverAll fans discovery out across all providers in parallel. One
// provider's failure is logged and skipped; the rest still contribute.
func (r *Registry) DiscoverAll(ctx context.Context) map[string][]types.ActionDescriptor {
	r.mu.RLock()
	snapshot := make(map[string]Provider, len(r.providers))
	for id, p := range r.providers {
		snapshot[id] = p
	}
	r.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string][]types.ActionDescriptor, len(snapshot))
	)
	for id, p := range snapshot {
		wg.Add(1)
		go func(id string, p Provider) {
			defer wg.Done()
			descriptors, err := p.Discover(ctx)
			if err != nil {
				r.log.Warn("discovery failed",
					zap.String("provider", id),
					zap.Error(err))
				return
			}
			mu.Lock()
			results[id] = descriptors
			mu.Unlock()
		}(id, p)
	}
	wg.Wait()
	return results
}

// CreateGroup builds the toolbar group for one provider. Fails gracefully
// with a nil group when the id is unknown or the provider lacks the
// capability.
func (r *Registry) CreateGroup(ctx context.Context, providerID string) (*types.ButtonGroup, error) {
	p, ok := r.TryGet(providerID)
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	builder, ok := p.(GroupBuilder)
	if !ok {
		return nil, fmt.Errorf("provider %s does not build groups", providerID)
	}
	return builder.CreateGroup(ctx)
}

// Invoke executes one action on the named provider. Unknown providers are
// reported both as data and as an error, matching the invocation failure
// discipline of providers themselves.
func (r *Registry) Invoke(ctx context.Context, providerID, actionID string, args map[string]interface{}, progress types.ProgressSink) (*types.ActionResult, error) {
	p, ok := r.TryGet(providerID)
	if !ok {
		msg := fmt.Sprintf("provider not found: %s", providerID)
		return &types.ActionResult{Ok: false, Message: msg}, fmt.Errorf("%s", msg)
	}

	start := time.Now()
	result, err := p.Invoke(ctx, actionID, args, progress)
	if result == nil {
		result = &types.ActionResult{Ok: false, Message: "provider returned no result"}
	}
	if r.metricsEnabled() {
		r.metrics.RecordInvocation(strings.ToLower(providerID), result.Ok, time.Since(start))
	}
	return result, err
}

// Subscribe registers a consumer of the aggregated change stream. The
// returned cancel function must be called to release the subscription.
func (r *Registry) Subscribe() (<-chan types.ChangeEvent, func()) {
	return r.hub.subscribe()
}

// Stats returns registry statistics.
func (r *Registry) Stats() map[string]interface{} {
	r.mu.RLock()
	total := len(r.providers)
	groupBuilders := 0
	notifiers := 0
	for _, p := range r.providers {
		if _, ok := p.(GroupBuilder); ok {
			groupBuilders++
		}
		if _, ok := p.(ChangeNotifier); ok {
			notifiers++
		}
	}
	r.mu.RUnlock()

	return map[string]interface{}{
		"total_providers": total,
		"group_builders":  groupBuilders,
		"notifiers":       notifiers,
		"subscribers":     r.hub.subscriberCount(),
	}
}

func (r *Registry) metricsEnabled() bool {
	return r.metrics != nil
}

// Close shuts the change hub down, disconnecting all subscribers.
func (r *Registry) Close() {
	r.hub.close()
}
