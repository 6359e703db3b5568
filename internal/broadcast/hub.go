package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jostincp/Encore-sub007/models"
)

const subscriberBuffer = 16

// Subscription is one live listener on a venue channel. Events arrive on C;
// when the buffer is full new events are dropped for this subscriber only
// (delivery is best-effort, clients resync via a fresh snapshot).
type Subscription struct {
	VenueID string
	C       chan models.VenueEvent

	hub  *Hub
	once sync.Once
}

// Close detaches the subscription from the hub and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

// Hub is the in-process fanout for websocket subscribers. It doubles as a
// broadcast sink so every mutation published by the engine reaches all
// attached connections.
type Hub struct {
	mu     sync.RWMutex
	venues map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		venues: make(map[string]map[*Subscription]struct{}),
	}
}

func (h *Hub) Name() string { return "websocket" }

// Subscribe attaches a new listener to the venue channel.
func (h *Hub) Subscribe(venueID string) *Subscription {
	sub := &Subscription{
		VenueID: venueID,
		C:       make(chan models.VenueEvent, subscriberBuffer),
		hub:     h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.venues[venueID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.venues[venueID] = subs
	}
	subs[sub] = struct{}{}

	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.venues[sub.VenueID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.venues, sub.VenueID)
	}
	close(sub.C)
}

// SubscriberCount reports the number of listeners on a venue channel.
func (h *Hub) SubscriberCount(venueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.venues[venueID])
}

func (h *Hub) Deliver(_ context.Context, event models.VenueEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.venues[event.VenueID] {
		select {
		case sub.C <- event:
		default:
			// Slow consumer; drop rather than stall the fanout.
			slog.Debug("dropping event for slow subscriber",
				"venue_id", event.VenueID, "type", event.Type)
		}
	}
	return nil
}
