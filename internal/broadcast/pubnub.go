package broadcast

import (
	"context"
	"fmt"

	pubnub "github.com/pubnub/go"

	"github.com/jostincp/Encore-sub007/models"
)

// PubNubSink pushes venue events to the PubNub channel mobile clients are
// subscribed to. One channel per venue.
type PubNubSink struct {
	pn *pubnub.PubNub
}

func NewPubNubSink(pn *pubnub.PubNub) *PubNubSink {
	return &PubNubSink{pn: pn}
}

func (s *PubNubSink) Name() string { return "pubnub" }

func (s *PubNubSink) Deliver(_ context.Context, event models.VenueEvent) error {
	channel := fmt.Sprintf("venue-%s", event.VenueID)

	_, _, err := s.pn.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":       string(event.Type),
			"venue_id":   event.VenueID,
			"payload":    event.Payload,
			"emitted_at": event.EmittedAt,
		}).
		Execute()

	return err
}
