package models

import "time"

// EventType identifies a realtime notification pushed to venue subscribers.
type EventType string

const (
	EventQueueChanged  EventType = "queue_changed"
	EventTrackStarted  EventType = "track_started"
	EventTrackEnded    EventType = "track_ended"
	EventPointsChanged EventType = "points_changed"
	EventQueueIdle     EventType = "queue_idle"
)

// VenueEvent is one broadcast message. Payload depends on Type:
// queue_changed carries a QueueSnapshot, track_started/track_ended carry a
// QueueEntry, points_changed carries a PointsBalance, queue_idle carries
// nothing. Delivery is best-effort and at-most-once; clients that reconnect
// must fetch a fresh snapshot instead of relying on replay.
type VenueEvent struct {
	Type      EventType `json:"type"`
	VenueID   string    `json:"venue_id"`
	Payload   any       `json:"payload,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}
