package models

import (
	"time"
)

// Lane is one of the two sub-queues inside a venue queue. Priority entries
// are always served before standard ones; within a lane the order is FIFO.
type Lane string

const (
	LanePriority Lane = "priority"
	LaneStandard Lane = "standard"
)

func (l Lane) Valid() bool {
	return l == LanePriority || l == LaneStandard
}

// EntryStatus is the lifecycle state of a request.
type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusPlaying   EntryStatus = "playing"
	StatusCompleted EntryStatus = "completed"
	StatusSkipped   EntryStatus = "skipped"
	StatusRemoved   EntryStatus = "removed"
)

// QueueEntry is a single song request in a venue queue.
type QueueEntry struct {
	ID            string      `json:"id"`
	VenueID       string      `json:"venue_id"`
	SongID        string      `json:"song_id"`
	Lane          Lane        `json:"lane"`
	TableID       string      `json:"table_id"`
	PointsCharged int64       `json:"points_charged"`
	Status        EntryStatus `json:"status"`
	RequestedAt   time.Time   `json:"requested_at"`
}

// QueueSnapshot is the full visible state of a venue queue: the pending
// entries in playback order (priority lane first) plus the now-playing
// entry, if any.
type QueueSnapshot struct {
	VenueID    string       `json:"venue_id"`
	Entries    []QueueEntry `json:"entries"`
	NowPlaying *QueueEntry  `json:"now_playing,omitempty"`
	TakenAt    time.Time    `json:"taken_at"`
}

// PointsBalance is the remaining balance of a (venue, table) pair.
type PointsBalance struct {
	VenueID string `json:"venue_id"`
	TableID string `json:"table_id"`
	Balance int64  `json:"balance"`
}

// PlayedTrack is one row of the play history archive.
type PlayedTrack struct {
	EntryID  string      `db:"entry_id" json:"entry_id"`
	VenueID  string      `db:"venue_id" json:"venue_id"`
	SongID   string      `db:"song_id" json:"song_id"`
	TableID  string      `db:"table_id" json:"table_id"`
	Lane     string      `db:"lane" json:"lane"`
	Outcome  EntryStatus `db:"outcome" json:"outcome"`
	Points   int64       `db:"points" json:"points"`
	PlayedAt time.Time   `db:"played_at" json:"played_at"`
}
