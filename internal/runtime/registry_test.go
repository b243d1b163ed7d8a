package runtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

type mockProvider struct {
	id      string
	actions []types.ActionDescriptor
	changes chan types.ChangeEvent
	invoked []string
}

func (m *mockProvider) ID() string { return m.id }

func (m *mockProvider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: m.id, Name: "Mock Provider", Version: "0.1.0"}
}

func (m *mockProvider) Discover(ctx context.Context) ([]types.ActionDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.actions, nil
}

func (m *mockProvider) Invoke(ctx context.Context, actionID string, args map[string]interface{}, progress types.ProgressSink) (*types.ActionResult, error) {
	m.invoked = append(m.invoked, actionID)
	if actionID == "missing" {
		return &types.ActionResult{Ok: false, Message: "unknown action"}, nil
	}
	return &types.ActionResult{Ok: true}, nil
}

// groupProvider adds the GroupBuilder capability.
type groupProvider struct {
	mockProvider
}

func (g *groupProvider) CreateGroup(ctx context.Context) (*types.ButtonGroup, error) {
	return &types.ButtonGroup{Name: "Mock Group"}, nil
}

// notifyingProvider adds the ChangeNotifier capability.
type notifyingProvider struct {
	mockProvider
}

func (n *notifyingProvider) Changes() <-chan types.ChangeEvent {
	return n.changes
}

func newTestRegistry() *Registry {
	return NewRegistry(logging.NewNop(), nil)
}

func TestRegister(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	if err := r.Register(&mockProvider{id: "test"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, ok := r.TryGet("test"); !ok {
		t.Error("Provider should be registered")
	}
}

func TestRegisterEmptyID(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	if err := r.Register(&mockProvider{id: ""}); err == nil {
		t.Error("Registering an empty id should fail")
	}
}

func TestRegisterCaseInsensitive(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	r.Register(&mockProvider{id: "Workspaces"})
	if _, ok := r.TryGet("WORKSPACES"); !ok {
		t.Error("Lookup should be case-insensitive")
	}
}

func TestRegisterLastWins(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	first := &mockProvider{id: "dup"}
	second := &mockProvider{id: "DUP"}
	r.Register(first)
	r.Register(second)

	got, _ := r.TryGet("dup")
	if got != second {
		t.Error("Last registration for an id should win")
	}
	if len(r.List()) != 1 {
		t.Errorf("Expected 1 provider, got %d", len(r.List()))
	}
}

func TestDiscoverAll(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	r.Register(&mockProvider{id: "a", actions: []types.ActionDescriptor{{ID: "a.one"}}})
	r.Register(&mockProvider{id: "b", actions: []types.ActionDescriptor{{ID: "b.one"}, {ID: "b.two"}}})

	results := r.DiscoverAll(context.Background())
	if len(results["a"]) != 1 || len(results["b"]) != 2 {
		t.Errorf("Unexpected discovery results: %v", results)
	}
}

func TestDiscoverCancelled(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()
	r.Register(&mockProvider{id: "a", actions: []types.ActionDescriptor{{ID: "a.one"}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Discover(ctx, "a"); err == nil {
		t.Error("Cancelled discovery should return the context error")
	}
}

func TestCreateGroup(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	r.Register(&groupProvider{mockProvider{id: "grouped"}})
	r.Register(&mockProvider{id: "plain"})

	group, err := r.CreateGroup(context.Background(), "grouped")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if group.Name != "Mock Group" {
		t.Errorf("Unexpected group name %q", group.Name)
	}

	// Graceful failure paths: unknown id and missing capability.
	if group, err := r.CreateGroup(context.Background(), "nope"); err == nil || group != nil {
		t.Error("Unknown provider should yield nil group and error")
	}
	if group, err := r.CreateGroup(context.Background(), "plain"); err == nil || group != nil {
		t.Error("Provider without the capability should yield nil group and error")
	}
}

func TestInvoke(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()
	r.Register(&mockProvider{id: "test"})

	result, err := r.Invoke(context.Background(), "test", "test.run", nil, nil)
	if err != nil || !result.Ok {
		t.Fatalf("Invoke failed: ok=%v err=%v", result.Ok, err)
	}

	// Unknown action id is an expected failure, reported as data.
	result, err = r.Invoke(context.Background(), "test", "missing", nil, nil)
	if err != nil {
		t.Fatalf("Expected failure should not be an error: %v", err)
	}
	if result.Ok {
		t.Error("Unknown action should report Ok=false")
	}
}

func TestInvokeUnknownProvider(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	result, err := r.Invoke(context.Background(), "ghost", "x", nil, nil)
	if err == nil {
		t.Error("Unknown provider should return an error")
	}
	if result == nil || result.Ok {
		t.Error("Unknown provider should also report Ok=false")
	}
}

func TestChangeFanOut(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	changes := make(chan types.ChangeEvent, 4)
	r.Register(&notifyingProvider{mockProvider{id: "noisy", changes: changes}})

	events, cancel := r.Subscribe()
	defer cancel()

	// Drain the registration event raised before we subscribed, if any
	// arrived late; then push provider events in order.
	changes <- types.ChangeEvent{Kind: types.ChangeActionsUpdated, AffectedIDs: []string{"a"}}
	changes <- types.ChangeEvent{Kind: types.ChangeGroupUpdated}

	var got []types.ChangeEvent
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			if ev.Kind == types.ChangeProviderRegistered {
				continue
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("Timed out waiting for events, got %d", len(got))
		}
	}

	if got[0].Kind != types.ChangeActionsUpdated || got[1].Kind != types.ChangeGroupUpdated {
		t.Errorf("Events out of order: %v", got)
	}
	if got[0].ProviderID != "noisy" {
		t.Errorf("Hub should stamp the provider id, got %q", got[0].ProviderID)
	}
}

func TestSubscribeCancel(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	_, cancel := r.Subscribe()
	if r.Stats()["subscribers"].(int) != 1 {
		t.Error("Expected one subscriber")
	}
	cancel()
	cancel() // idempotent
	if r.Stats()["subscribers"].(int) != 0 {
		t.Error("Cancel should remove the subscriber")
	}
}

func TestStats(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	for i := 0; i < 3; i++ {
		r.Register(&mockProvider{id: fmt.Sprintf("p%d", i)})
	}
	r.Register(&groupProvider{mockProvider{id: "grouped"}})

	stats := r.Stats()
	if stats["total_providers"].(int) != 4 {
		t.Errorf("Expected 4 providers, got %v", stats["total_providers"])
	}
	if stats["group_builders"].(int) != 1 {
		t.Errorf("Expected 1 group builder, got %v", stats["group_builders"])
	}
}
