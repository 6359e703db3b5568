package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jostincp/Encore-sub007/internal/broadcast"
	"github.com/jostincp/Encore-sub007/internal/status"
	"github.com/jostincp/Encore-sub007/models"
	"github.com/jostincp/Encore-sub007/monitoring"
)

// QueueService is the queue manager: it owns every mutation of a venue's
// request queue and keeps the dedup, ordering, and points invariants by
// running each mutation as a single script against the coordination store.
type QueueService struct {
	Redis       *redis.Client
	broadcaster broadcast.Publisher

	storeTimeout time.Duration

	// Injection points for tests.
	now       func() time.Time
	newID     func() string
	snapshots func(ctx context.Context, venueID string) (*models.QueueSnapshot, error)
}

func NewQueueService(redisClient *redis.Client, publisher broadcast.Publisher, storeTimeout time.Duration) *QueueService {
	s := &QueueService{
		Redis:        redisClient,
		broadcaster:  publisher,
		storeTimeout: storeTimeout,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	s.snapshots = s.GetSnapshot
	return s
}

// AddRequest validates and enqueues a song request. Dedup check, balance
// check, debit, lane append, and dedup registration happen in one atomic
// unit; two concurrent requests for the same song yield exactly one success.
// When the venue is idle the new (or next eligible) entry is promoted to
// playing immediately.
func (s *QueueService) AddRequest(ctx context.Context, venueID, tableID, songID string, lane models.Lane, pointsCost int64) (*models.QueueEntry, error) {
	if venueID == "" || tableID == "" {
		return nil, errors.New("venue id and table id must not be empty")
	}
	if songID == "" {
		return nil, errors.New("song id must not be empty")
	}
	if pointsCost < 0 {
		return nil, errors.New("points cost must not be negative")
	}
	if !lane.Valid() {
		return nil, fmt.Errorf("unknown lane %q", lane)
	}

	entry := models.QueueEntry{
		ID:            s.newID(),
		VenueID:       venueID,
		SongID:        songID,
		Lane:          lane,
		TableID:       tableID,
		PointsCharged: pointsCost,
		Status:        models.StatusPending,
		RequestedAt:   s.now().UTC(),
	}

	keys := []string{
		dedupKey(venueID),
		pointsKey(venueID, tableID),
		priorityLaneKey(venueID),
		standardLaneKey(venueID),
		entryKey(venueID, entry.ID),
		nowPlayingKey(venueID),
	}
	args := []any{
		songID,
		pointsCost,
		entry.ID,
		string(lane),
		tableID,
		venueID,
		entry.RequestedAt.Format(time.RFC3339Nano),
		entryKeyPrefix(venueID),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.Redis.Eval(storeCtx, addRequestScript, keys, args...).Result()
	if err != nil {
		monitoring.TrackQueueOperation("add", venueID, "unavailable")
		return nil, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}

	st, balance, started, err := decodeAddReply(res)
	if err != nil {
		return nil, err
	}

	switch st {
	case "duplicate_song":
		monitoring.TrackQueueOperation("add", venueID, "duplicate")
		return nil, status.ErrDuplicateSong
	case "insufficient_points":
		monitoring.TrackQueueOperation("add", venueID, "insufficient")
		return nil, status.ErrInsufficientPoints
	}

	monitoring.TrackQueueOperation("add", venueID, "success")

	if started == entry.ID {
		entry.Status = models.StatusPlaying
	}

	s.publishQueueChanged(ctx, venueID)
	s.broadcaster.Publish(venueID, models.EventPointsChanged, models.PointsBalance{
		VenueID: venueID,
		TableID: tableID,
		Balance: balance,
	})
	if started != "" {
		if started == entry.ID {
			s.broadcaster.Publish(venueID, models.EventTrackStarted, entry)
		} else if startedEntry, err := s.GetEntry(ctx, venueID, started); err == nil {
			s.broadcaster.Publish(venueID, models.EventTrackStarted, *startedEntry)
		}
	}

	return &entry, nil
}

// RemoveRequest cancels a pending entry, refunding its points and freeing
// its dedup slot. Only the requesting table or an admin may remove it; a
// playing entry is skipped through the playback machine instead.
func (s *QueueService) RemoveRequest(ctx context.Context, venueID, entryID, requesterID string, isAdmin bool) error {
	entry, err := s.GetEntry(ctx, venueID, entryID)
	if err != nil {
		return err
	}
	if !isAdmin && entry.TableID != requesterID {
		return status.ErrForbidden
	}

	keys := []string{
		entryKey(venueID, entryID),
		dedupKey(venueID),
		pointsKey(venueID, entry.TableID),
		priorityLaneKey(venueID),
		standardLaneKey(venueID),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.Redis.Eval(storeCtx, removeRequestScript, keys, entryID, entry.TableID).Result()
	if err != nil {
		monitoring.TrackQueueOperation("remove", venueID, "unavailable")
		return fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}

	st, balance, _, err := decodeAddReply(res)
	if err != nil {
		return err
	}

	switch st {
	case "not_found":
		monitoring.TrackQueueOperation("remove", venueID, "not_found")
		return status.ErrNotFound
	case "invalid_state":
		monitoring.TrackQueueOperation("remove", venueID, "invalid_state")
		return status.ErrInvalidState
	case "conflict":
		// Table mismatch inside the script: an ownership failure, same as
		// the pre-check.
		monitoring.TrackQueueOperation("remove", venueID, "forbidden")
		return status.ErrForbidden
	}

	monitoring.TrackQueueOperation("remove", venueID, "success")

	s.publishQueueChanged(ctx, venueID)
	s.broadcaster.Publish(venueID, models.EventPointsChanged, models.PointsBalance{
		VenueID: venueID,
		TableID: entry.TableID,
		Balance: balance,
	})

	return nil
}

// GetEntry resolves a single entry hash.
func (s *QueueService) GetEntry(ctx context.Context, venueID, entryID string) (*models.QueueEntry, error) {
	fields, err := s.Redis.HGetAll(ctx, entryKey(venueID, entryID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, status.ErrNotFound
	}
	entry := entryFromHash(fields)
	return &entry, nil
}

// GetSnapshot reads the queue in playback order: priority lane first, then
// standard, plus the now-playing entry. The read is best-effort, not
// atomic; a torn view self-heals on the next queue_changed event.
func (s *QueueService) GetSnapshot(ctx context.Context, venueID string) (*models.QueueSnapshot, error) {
	snapshot := models.QueueSnapshot{
		VenueID: venueID,
		Entries: []models.QueueEntry{},
		TakenAt: s.now().UTC(),
	}

	for _, laneKey := range []string{priorityLaneKey(venueID), standardLaneKey(venueID)} {
		ids, err := s.Redis.LRange(ctx, laneKey, 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
		}
		for _, id := range ids {
			fields, err := s.Redis.HGetAll(ctx, entryKey(venueID, id)).Result()
			if err != nil || len(fields) == 0 {
				continue
			}
			snapshot.Entries = append(snapshot.Entries, entryFromHash(fields))
		}
	}

	playingID, err := s.Redis.Get(ctx, nowPlayingKey(venueID)).Result()
	if err == nil && playingID != "" {
		if entry, err := s.GetEntry(ctx, venueID, playingID); err == nil {
			snapshot.NowPlaying = entry
		}
	} else if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}

	return &snapshot, nil
}

func (s *QueueService) publishQueueChanged(ctx context.Context, venueID string) {
	snapshot, err := s.snapshots(ctx, venueID)
	if err != nil {
		slog.Warn("snapshot for queue_changed failed", "venue_id", venueID, "error", err)
		return
	}
	s.broadcaster.Publish(venueID, models.EventQueueChanged, snapshot)
}

// entryFromHash rebuilds an entry from its Redis hash representation.
func entryFromHash(fields map[string]string) models.QueueEntry {
	points, _ := strconv.ParseInt(fields["points_charged"], 10, 64)
	requestedAt, _ := time.Parse(time.RFC3339Nano, fields["requested_at"])

	return models.QueueEntry{
		ID:            fields["id"],
		VenueID:       fields["venue_id"],
		SongID:        fields["song_id"],
		Lane:          models.Lane(fields["lane"]),
		TableID:       fields["table_id"],
		PointsCharged: points,
		Status:        models.EntryStatus(fields["status"]),
		RequestedAt:   requestedAt,
	}
}

// decodeAddReply unpacks the {status, number, string-or-number} arrays the
// mutation scripts return.
func decodeAddReply(res any) (st string, num int64, extra string, err error) {
	arr, ok := res.([]any)
	if !ok || len(arr) < 3 {
		return "", 0, "", fmt.Errorf("unexpected script reply: %v", res)
	}
	st, _ = arr[0].(string)
	num = replyInt(arr[1])
	extra, _ = arr[2].(string)
	return st, num, extra, nil
}

func replyInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}
