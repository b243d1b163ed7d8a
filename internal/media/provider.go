// Package media implements the media playback provider.
//
// Transport commands take effect asynchronously: the OS confirms a
// play/pause some time after the call returns. The provider bridges that
// gap with an optimistic overlay, a short-lived client-asserted playback
// state that masks the latency; the first authoritative notification
// from the OS clears it unconditionally.
package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

// ProviderID is the stable registry key of the media provider.
const ProviderID = "media"

// OverlayTTL bounds how long a client-asserted state masks the
// authoritative one before it is discarded as stale.
const OverlayTTL = 2 * time.Second

const (
	PlayPauseActionID = "media.playpause"
	NextActionID      = "media.next"
	PreviousActionID  = "media.previous"
)

// PlaybackState is one observation of the OS media session.
type PlaybackState struct {
	Present bool
	Playing bool
	Title   string
	Artist  string
}

// SessionSource abstracts the OS media session: current state, transport
// controls, and an authoritative change feed.
type SessionSource interface {
	Current(ctx context.Context) (PlaybackState, error)
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Updates() <-chan PlaybackState
}

// assertedState is the optimistic overlay entry.
type assertedState struct {
	playing bool
	at      time.Time
}

// Provider exposes media transport actions backed by a session source.
type Provider struct {
	source SessionSource
	log    *logging.Logger

	mu      sync.Mutex
	last    PlaybackState
	overlay *assertedState

	changes chan types.ChangeEvent
	done    chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// NewProvider creates the media provider and starts consuming the
// source's authoritative updates.
func NewProvider(source SessionSource, log *logging.Logger) *Provider {
	p := &Provider{
		source:  source,
		log:     log,
		changes: make(chan types.ChangeEvent, 16),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go p.consumeUpdates()
	return p
}

// ID implements runtime.Provider.
func (p *Provider) ID() string { return ProviderID }

// Info implements runtime.Provider.
func (p *Provider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: ProviderID, Name: "Media Controls", Version: "0.3.0"}
}

// Changes exposes the provider's change notifications to the runtime.
func (p *Provider) Changes() <-chan types.ChangeEvent { return p.changes }

// Close stops the update consumer, which in turn closes the change
// stream.
func (p *Provider) Close() {
	close(p.done)
}

// State returns the playback state as the UI should render it: the
// unexpired overlay if one is set, otherwise the last authoritative
// observation.
func (p *Provider) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Provider) stateLocked() PlaybackState {
	if p.overlay != nil {
		if p.now().Sub(p.overlay.at) < OverlayTTL {
			st := p.last
			st.Playing = p.overlay.playing
			return st
		}
		// Expired: fall back to the authoritative observation.
		p.overlay = nil
	}
	return p.last
}

// Discover yields the transport actions; availability tracks session
// presence.
func (p *Provider) Discover(ctx context.Context) ([]types.ActionDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := p.State()
	playPauseTitle := "Play"
	if st.Playing {
		playPauseTitle = "Pause"
	}

	return []types.ActionDescriptor{
		{
			ID:         PreviousActionID,
			Title:      "Previous track",
			Kind:       types.ActionCommand,
			GroupHint:  "Media",
			Order:      1,
			CanExecute: st.Present,
			Keywords:   []string{"media", "previous"},
		},
		{
			ID:         PlayPauseActionID,
			Title:      playPauseTitle,
			Subtitle:   subtitle(st),
			Kind:       types.ActionCommand,
			GroupHint:  "Media",
			Order:      2,
			CanExecute: st.Present,
			Keywords:   []string{"media", "play", "pause"},
		},
		{
			ID:         NextActionID,
			Title:      "Next track",
			Kind:       types.ActionCommand,
			GroupHint:  "Media",
			Order:      3,
			CanExecute: st.Present,
			Keywords:   []string{"media", "next"},
		},
	}, nil
}

// Invoke executes a transport action. The overlay is only recorded after
// the OS call returns success, never speculatively, so cancellation can
// not leave it inconsistent.
func (p *Provider) Invoke(ctx context.Context, actionID string, args map[string]interface{}, progress types.ProgressSink) (*types.ActionResult, error) {
	st := p.State()
	if !st.Present {
		return &types.ActionResult{Ok: false, Message: "no active media session"}, nil
	}

	switch actionID {
	case PlayPauseActionID:
		var err error
		target := !st.Playing
		if st.Playing {
			err = p.source.Pause(ctx)
		} else {
			err = p.source.Play(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return &types.ActionResult{Ok: false, Message: fmt.Sprintf("transport command failed: %v", err)}, nil
		}

		p.mu.Lock()
		p.overlay = &assertedState{playing: target, at: p.now()}
		p.mu.Unlock()
		return &types.ActionResult{Ok: true}, nil

	case NextActionID:
		return p.simpleTransport(ctx, p.source.Next)
	case PreviousActionID:
		return p.simpleTransport(ctx, p.source.Previous)
	default:
		return &types.ActionResult{Ok: false, Message: fmt.Sprintf("unknown action: %s", actionID)}, nil
	}
}

func (p *Provider) simpleTransport(ctx context.Context, call func(context.Context) error) (*types.ActionResult, error) {
	if err := call(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &types.ActionResult{Ok: false, Message: fmt.Sprintf("transport command failed: %v", err)}, nil
	}
	return &types.ActionResult{Ok: true}, nil
}

// consumeUpdates applies authoritative session changes. Authoritative
// state always wins once observed: the overlay is cleared unconditionally.
func (p *Provider) consumeUpdates() {
	defer close(p.changes)
	updates := p.source.Updates()
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			p.mu.Lock()
			p.last = st
			p.overlay = nil
			p.mu.Unlock()

			select {
			case p.changes <- types.ChangeEvent{
				ProviderID:  ProviderID,
				Kind:        types.ChangeActionsUpdated,
				AffectedIDs: []string{PlayPauseActionID},
			}:
			default:
			}
		case <-p.done:
			return
		}
	}
}

func subtitle(st PlaybackState) string {
	if st.Title == "" {
		return ""
	}
	if st.Artist == "" {
		return st.Title
	}
	return st.Artist + " - " + st.Title
}
