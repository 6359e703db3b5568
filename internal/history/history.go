// Package history archives finished tracks. It hangs off the broadcaster
// as a sink: every track_ended event becomes one row in a local sqlite
// database, queryable by venue for operator dashboards.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	_ "modernc.org/sqlite"

	"github.com/jostincp/Encore-sub007/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS play_history (
	entry_id  TEXT PRIMARY KEY,
	venue_id  TEXT NOT NULL,
	song_id   TEXT NOT NULL,
	table_id  TEXT NOT NULL,
	lane      TEXT NOT NULL,
	outcome   TEXT NOT NULL,
	points    INTEGER NOT NULL,
	played_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_play_history_venue ON play_history (venue_id, played_at);
`

type Recorder struct {
	db *dbx.DB

	// Clock injection for tests.
	now func() time.Time
}

func NewRecorder(path string) (*Recorder, error) {
	db, err := dbx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.NewQuery(schema).Execute(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Recorder{db: db, now: time.Now}, nil
}

func (r *Recorder) Name() string { return "history" }

// Deliver implements broadcast.Sink. Only track_ended events are recorded;
// everything else passes through untouched.
func (r *Recorder) Deliver(_ context.Context, event models.VenueEvent) error {
	if event.Type != models.EventTrackEnded {
		return nil
	}

	entry, ok := event.Payload.(models.QueueEntry)
	if !ok {
		if p, isPtr := event.Payload.(*models.QueueEntry); isPtr && p != nil {
			entry = *p
		} else {
			return fmt.Errorf("track_ended payload is not a queue entry")
		}
	}

	_, err := r.db.Insert("play_history", dbx.Params{
		"entry_id":  entry.ID,
		"venue_id":  entry.VenueID,
		"song_id":   entry.SongID,
		"table_id":  entry.TableID,
		"lane":      string(entry.Lane),
		"outcome":   string(entry.Status),
		"points":    entry.PointsCharged,
		"played_at": r.now().UTC().Format(time.RFC3339),
	}).Execute()
	if err != nil {
		return fmt.Errorf("insert play history: %w", err)
	}
	return nil
}

// Recent returns the newest history rows for a venue.
func (r *Recorder) Recent(venueID string, limit int) ([]models.PlayedTrack, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []struct {
		EntryID  string `db:"entry_id"`
		VenueID  string `db:"venue_id"`
		SongID   string `db:"song_id"`
		TableID  string `db:"table_id"`
		Lane     string `db:"lane"`
		Outcome  string `db:"outcome"`
		Points   int64  `db:"points"`
		PlayedAt string `db:"played_at"`
	}

	err := r.db.Select("entry_id", "venue_id", "song_id", "table_id", "lane", "outcome", "points", "played_at").
		From("play_history").
		Where(dbx.HashExp{"venue_id": venueID}).
		OrderBy("played_at DESC").
		Limit(int64(limit)).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("query play history: %w", err)
	}

	tracks := make([]models.PlayedTrack, 0, len(rows))
	for _, row := range rows {
		playedAt, _ := time.Parse(time.RFC3339, row.PlayedAt)
		tracks = append(tracks, models.PlayedTrack{
			EntryID:  row.EntryID,
			VenueID:  row.VenueID,
			SongID:   row.SongID,
			TableID:  row.TableID,
			Lane:     row.Lane,
			Outcome:  models.EntryStatus(row.Outcome),
			Points:   row.Points,
			PlayedAt: playedAt,
		})
	}
	return tracks, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
