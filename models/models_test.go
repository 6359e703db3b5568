package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLane_Valid(t *testing.T) {
	assert.True(t, LanePriority.Valid())
	assert.True(t, LaneStandard.Valid())
	assert.False(t, Lane("vip").Valid())
	assert.False(t, Lane("").Valid())
}

func TestQueueEntry_JSON(t *testing.T) {
	entry := QueueEntry{
		ID:            "e-1",
		VenueID:       "venue-1",
		SongID:        "song-1",
		Lane:          LanePriority,
		TableID:       "table-1",
		PointsCharged: 25,
		Status:        StatusPending,
		RequestedAt:   time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded QueueEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, entry, decoded)
}

func TestQueueSnapshot_OmitsIdleNowPlaying(t *testing.T) {
	snapshot := QueueSnapshot{
		VenueID: "venue-1",
		Entries: []QueueEntry{},
		TakenAt: time.Now().UTC(),
	}

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "now_playing")
}

func TestVenueEvent_JSON(t *testing.T) {
	event := VenueEvent{
		Type:      EventTrackStarted,
		VenueID:   "venue-1",
		Payload:   map[string]any{"id": "e-1"},
		EmittedAt: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"track_started"`)
	assert.Contains(t, string(data), `"venue-1"`)
}
