package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jostincp/Encore-sub007/internal/broadcast"
	"github.com/jostincp/Encore-sub007/internal/status"
	"github.com/jostincp/Encore-sub007/models"
	"github.com/jostincp/Encore-sub007/monitoring"
)

// PlaybackService drives the one-track-at-a-time state machine per venue:
// Idle, or Playing exactly one entry. Skip and MarkPlayed share the same
// advance step and differ only in the terminal status they stamp on the
// ended entry.
type PlaybackService struct {
	Redis       *redis.Client
	broadcaster broadcast.Publisher
	queue       *QueueService

	storeTimeout time.Duration
}

func NewPlaybackService(redisClient *redis.Client, publisher broadcast.Publisher, queue *QueueService, storeTimeout time.Duration) *PlaybackService {
	return &PlaybackService{
		Redis:        redisClient,
		broadcaster:  publisher,
		queue:        queue,
		storeTimeout: storeTimeout,
	}
}

// Skip ends the current track as skipped and promotes the next eligible
// entry. On an idle venue it is a no-op returning (nil, nil).
func (s *PlaybackService) Skip(ctx context.Context, venueID string) (*models.QueueEntry, error) {
	return s.advance(ctx, venueID, models.StatusSkipped, "skip")
}

// MarkPlayed ends the current track as completed (natural finish) and
// promotes the next eligible entry.
func (s *PlaybackService) MarkPlayed(ctx context.Context, venueID string) (*models.QueueEntry, error) {
	return s.advance(ctx, venueID, models.StatusCompleted, "mark_played")
}

func (s *PlaybackService) advance(ctx context.Context, venueID string, terminal models.EntryStatus, op string) (*models.QueueEntry, error) {
	keys := []string{
		nowPlayingKey(venueID),
		priorityLaneKey(venueID),
		standardLaneKey(venueID),
		dedupKey(venueID),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.Redis.Eval(storeCtx, advancePlaybackScript, keys, string(terminal), entryKeyPrefix(venueID)).Result()
	if err != nil {
		monitoring.TrackQueueOperation(op, venueID, "unavailable")
		return nil, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}

	st, endedID, startedID, err := decodeAdvanceReply(res)
	if err != nil {
		return nil, err
	}

	if st == "idle" {
		// Nothing playing; normal condition, no state change, no events.
		monitoring.TrackQueueOperation(op, venueID, "idle")
		return nil, nil
	}

	monitoring.TrackQueueOperation(op, venueID, "success")

	if ended, err := s.queue.GetEntry(ctx, venueID, endedID); err == nil {
		s.broadcaster.Publish(venueID, models.EventTrackEnded, *ended)
	}

	var started *models.QueueEntry
	if startedID != "" {
		started, err = s.queue.GetEntry(ctx, venueID, startedID)
		if err != nil {
			// The script already promoted the entry; a failed read-back
			// must not make the venue look idle.
			started = &models.QueueEntry{
				ID:      startedID,
				VenueID: venueID,
				Status:  models.StatusPlaying,
			}
		}
		s.broadcaster.Publish(venueID, models.EventTrackStarted, *started)
	} else {
		s.broadcaster.Publish(venueID, models.EventQueueIdle, nil)
	}

	s.queue.publishQueueChanged(ctx, venueID)

	return started, nil
}

// Start promotes the next eligible entry on an idle venue. Returns the
// already-playing entry unchanged if one exists, or (nil, nil) when both
// lanes are empty.
func (s *PlaybackService) Start(ctx context.Context, venueID string) (*models.QueueEntry, error) {
	keys := []string{
		nowPlayingKey(venueID),
		priorityLaneKey(venueID),
		standardLaneKey(venueID),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.Redis.Eval(storeCtx, startPlaybackScript, keys, entryKeyPrefix(venueID)).Result()
	if err != nil {
		monitoring.TrackQueueOperation("start", venueID, "unavailable")
		return nil, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) < 2 {
		return nil, fmt.Errorf("unexpected script reply: %v", res)
	}
	st, _ := arr[0].(string)
	entryID, _ := arr[1].(string)

	switch st {
	case "empty":
		monitoring.TrackQueueOperation("start", venueID, "empty")
		return nil, nil
	case "already_playing":
		return s.queue.GetEntry(ctx, venueID, entryID)
	}

	monitoring.TrackQueueOperation("start", venueID, "success")

	started, err := s.queue.GetEntry(ctx, venueID, entryID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(venueID, models.EventTrackStarted, *started)
	s.queue.publishQueueChanged(ctx, venueID)

	return started, nil
}

// NowPlaying returns the currently playing entry, or (nil, nil) when idle.
func (s *PlaybackService) NowPlaying(ctx context.Context, venueID string) (*models.QueueEntry, error) {
	entryID, err := s.Redis.Get(ctx, nowPlayingKey(venueID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}
	return s.queue.GetEntry(ctx, venueID, entryID)
}

func decodeAdvanceReply(res any) (st, ended, started string, err error) {
	arr, ok := res.([]any)
	if !ok || len(arr) < 3 {
		return "", "", "", fmt.Errorf("unexpected script reply: %v", res)
	}
	st, _ = arr[0].(string)
	ended, _ = arr[1].(string)
	started, _ = arr[2].(string)
	return st, ended, started, nil
}
