package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jostincp/Encore-sub007/models"
	"github.com/jostincp/Encore-sub007/monitoring"
)

const sinkQueueDepth = 256

// Publisher is the engine-facing side of the broadcaster. Publish never
// blocks and never fails the calling mutation; delivery problems stay
// inside the broadcast layer.
type Publisher interface {
	Publish(venueID string, eventType models.EventType, payload any)
}

// Sink delivers a single event to one transport (PubNub, websocket hub,
// AMQP exchange). Deliver may block; the broadcaster calls it from the
// sink's worker goroutine.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event models.VenueEvent) error
}

// Broadcaster fans every published event out to all registered sinks.
// Each sink gets one worker draining a buffered queue, so a sink sees
// events in publish order; a backlogged sink drops new events instead of
// stalling the others.
type Broadcaster struct {
	sinks   []Sink
	queues  []chan models.VenueEvent
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewBroadcaster(timeout time.Duration, sinks ...Sink) *Broadcaster {
	b := &Broadcaster{
		sinks:   sinks,
		timeout: timeout,
	}
	for _, sink := range sinks {
		queue := make(chan models.VenueEvent, sinkQueueDepth)
		b.queues = append(b.queues, queue)
		b.wg.Add(1)
		go b.run(sink, queue)
	}
	return b
}

func (b *Broadcaster) run(sink Sink, queue <-chan models.VenueEvent) {
	defer b.wg.Done()

	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		err := sink.Deliver(ctx, event)
		cancel()

		if err != nil {
			slog.Warn("broadcast delivery failed",
				"sink", sink.Name(), "venue_id", event.VenueID, "type", event.Type, "error", err)
			monitoring.TrackBroadcastFailure(sink.Name())
		}
	}
}

// Publish enqueues the event for every sink. Failures and overflow drops
// are logged and counted, never propagated: the mutation that triggered
// the event has already committed.
func (b *Broadcaster) Publish(venueID string, eventType models.EventType, payload any) {
	event := models.VenueEvent{
		Type:      eventType,
		VenueID:   venueID,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	}

	for i, queue := range b.queues {
		select {
		case queue <- event:
		default:
			slog.Warn("dropping event for backlogged sink",
				"sink", b.sinks[i].Name(), "venue_id", venueID, "type", eventType)
			monitoring.TrackBroadcastFailure(b.sinks[i].Name())
		}
	}
}

// Wait drains the queued deliveries and stops the workers. Used on
// shutdown; Publish must not be called afterwards.
func (b *Broadcaster) Wait() {
	for _, queue := range b.queues {
		close(queue)
	}
	b.wg.Wait()
}
