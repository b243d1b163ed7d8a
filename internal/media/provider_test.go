package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

type fakeSource struct {
	state   PlaybackState
	updates chan PlaybackState
	err     error
	calls   []string
}

func newFakeSource(playing bool) *fakeSource {
	return &fakeSource{
		state:   PlaybackState{Present: true, Playing: playing, Title: "Song", Artist: "Band"},
		updates: make(chan PlaybackState, 4),
	}
}

func (f *fakeSource) Current(ctx context.Context) (PlaybackState, error) { return f.state, f.err }

func (f *fakeSource) Play(ctx context.Context) error {
	f.calls = append(f.calls, "play")
	return f.err
}

func (f *fakeSource) Pause(ctx context.Context) error {
	f.calls = append(f.calls, "pause")
	return f.err
}

func (f *fakeSource) Next(ctx context.Context) error {
	f.calls = append(f.calls, "next")
	return f.err
}

func (f *fakeSource) Previous(ctx context.Context) error {
	f.calls = append(f.calls, "previous")
	return f.err
}

func (f *fakeSource) Updates() <-chan PlaybackState { return f.updates }

// push delivers an authoritative update and waits for the provider to
// apply it.
func push(t *testing.T, p *Provider, src *fakeSource, st PlaybackState) {
	t.Helper()
	src.updates <- st
	select {
	case <-p.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the provider to apply the update")
	}
}

func newTestProvider(t *testing.T, src *fakeSource) *Provider {
	t.Helper()
	p := NewProvider(src, logging.NewNop())
	t.Cleanup(p.Close)
	return p
}

func TestInvokeSetsOverlayAfterSuccess(t *testing.T) {
	src := newFakeSource(false)
	p := newTestProvider(t, src)
	push(t, p, src, src.state)

	result, err := p.Invoke(context.Background(), PlayPauseActionID, nil, nil)
	if err != nil || !result.Ok {
		t.Fatalf("Invoke failed: ok=%v err=%v", result.Ok, err)
	}
	if len(src.calls) != 1 || src.calls[0] != "play" {
		t.Errorf("Expected a play call, got %v", src.calls)
	}

	// The overlay asserts "playing" before the OS confirms it.
	if !p.State().Playing {
		t.Error("Overlay should report playing immediately after invoke")
	}
}

func TestOverlayExpires(t *testing.T) {
	src := newFakeSource(false)
	p := newTestProvider(t, src)
	push(t, p, src, src.state)

	base := time.Now()
	p.now = func() time.Time { return base }

	if _, err := p.Invoke(context.Background(), PlayPauseActionID, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !p.State().Playing {
		t.Fatal("Overlay should be active")
	}

	// Past the TTL the overlay is discarded and the authoritative
	// observation (paused) wins again.
	p.now = func() time.Time { return base.Add(OverlayTTL + time.Millisecond) }
	if p.State().Playing {
		t.Error("Expired overlay must fall back to authoritative state")
	}
}

func TestAuthoritativeUpdateClearsOverlay(t *testing.T) {
	src := newFakeSource(false)
	p := newTestProvider(t, src)
	push(t, p, src, src.state)

	if _, err := p.Invoke(context.Background(), PlayPauseActionID, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !p.State().Playing {
		t.Fatal("Overlay should be active")
	}

	// The OS reports it stayed paused; authoritative state wins even
	// though the overlay has not expired.
	push(t, p, src, PlaybackState{Present: true, Playing: false, Title: "Song"})
	if p.State().Playing {
		t.Error("Authoritative update must clear the overlay unconditionally")
	}
}

func TestInvokeFailureLeavesOverlayUnset(t *testing.T) {
	src := newFakeSource(false)
	p := newTestProvider(t, src)
	push(t, p, src, src.state)
	src.err = errors.New("session gone")

	result, err := p.Invoke(context.Background(), PlayPauseActionID, nil, nil)
	if err != nil {
		t.Fatalf("Transport failure should be data, got error: %v", err)
	}
	if result.Ok {
		t.Error("Failed transport should report Ok=false")
	}
	if p.State().Playing {
		t.Error("Overlay must never be set before a definitive success")
	}
}

func TestInvokeWithoutSession(t *testing.T) {
	src := newFakeSource(false)
	src.state = PlaybackState{}
	p := newTestProvider(t, src)

	result, err := p.Invoke(context.Background(), PlayPauseActionID, nil, nil)
	if err != nil || result.Ok {
		t.Error("No session should report Ok=false without error")
	}
}

func TestDiscoverTracksState(t *testing.T) {
	src := newFakeSource(true)
	p := newTestProvider(t, src)
	push(t, p, src, src.state)

	descriptors, err := p.Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(descriptors) != 3 {
		t.Fatalf("Expected 3 actions, got %d", len(descriptors))
	}
	for _, d := range descriptors {
		if !d.CanExecute {
			t.Errorf("%s should be executable with an active session", d.ID)
		}
		if d.ID == PlayPauseActionID && d.Title != "Pause" {
			t.Errorf("Playing session should offer Pause, got %q", d.Title)
		}
	}
}

func TestUpdateRaisesChangeEvent(t *testing.T) {
	src := newFakeSource(false)
	p := newTestProvider(t, src)

	src.updates <- PlaybackState{Present: true, Playing: true}
	select {
	case ev := <-p.Changes():
		if ev.Kind != types.ChangeActionsUpdated {
			t.Errorf("Expected ActionsUpdated, got %s", ev.Kind)
		}
		if len(ev.AffectedIDs) != 1 || ev.AffectedIDs[0] != PlayPauseActionID {
			t.Errorf("Unexpected affected ids: %v", ev.AffectedIDs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for change event")
	}
}
