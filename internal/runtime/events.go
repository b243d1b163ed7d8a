package runtime

import (
	"sync"

	"github.com/vanzue/toptoolbar-sub001/internal/monitoring"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls further behind loses events instead of blocking the hub.
const subscriberBuffer = 64

// Hub aggregates every provider's change notifications into one stream
// with many subscribers. Delivery order is preserved per provider; no
// ordering is guaranteed across providers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]chan types.ChangeEvent
	nextID      int
	closed      bool
	metrics     *monitoring.Metrics
}

func newHub(metrics *monitoring.Metrics) *Hub {
	return &Hub{
		subscribers: make(map[int]chan types.ChangeEvent),
		metrics:     metrics,
	}
}

// forward drains one provider's change channel into the hub. The provider
// id is stamped on every event so subscribers can route without trusting
// the provider to fill it in.
func (h *Hub) forward(providerID string, ch <-chan types.ChangeEvent) {
	for ev := range ch {
		ev.ProviderID = providerID
		h.publish(ev)
	}
}

// publish delivers an event to all subscribers without blocking on any of
// them; a full subscriber channel drops the event for that subscriber only.
func (h *Hub) publish(ev types.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	if h.metrics != nil {
		h.metrics.ChangeEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	}

	for _, sub := range h.subscribers {
		select {
		case sub <- ev:
		default:
			if h.metrics != nil {
				h.metrics.EventsDropped.Inc()
			}
		}
	}
}

func (h *Hub) subscribe() (<-chan types.ChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		closed := make(chan types.ChangeEvent)
		close(closed)
		return closed, func() {}
	}

	id := h.nextID
	h.nextID++
	ch := make(chan types.ChangeEvent, subscriberBuffer)
	h.subscribers[id] = ch

	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(len(h.subscribers)))
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if sub, ok := h.subscribers[id]; ok {
				delete(h.subscribers, id)
				close(sub)
			}
			if h.metrics != nil {
				h.metrics.Subscribers.Set(float64(len(h.subscribers)))
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

func (h *Hub) subscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subscribers {
		delete(h.subscribers, id)
		close(sub)
	}
}
