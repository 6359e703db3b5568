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

// PointsService is the ledger adapter for (venue, table) balances. The
// queue manager debits and refunds inside its own atomic units; this
// service covers the standalone operations: balance lookup, admin top-up,
// and direct debits for collaborators outside the queue path.
type PointsService struct {
	Redis       *redis.Client
	broadcaster broadcast.Publisher

	storeTimeout time.Duration
}

func NewPointsService(redisClient *redis.Client, publisher broadcast.Publisher, storeTimeout time.Duration) *PointsService {
	return &PointsService{
		Redis:        redisClient,
		broadcaster:  publisher,
		storeTimeout: storeTimeout,
	}
}

// Balance returns the current balance; a table with no ledger key yet has
// balance zero.
func (s *PointsService) Balance(ctx context.Context, venueID, tableID string) (int64, error) {
	balance, err := s.Redis.Get(ctx, pointsKey(venueID, tableID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}
	return balance, nil
}

// Debit removes amount from the balance, failing atomically with
// ErrInsufficientPoints when the balance is short at the instant of the
// write.
func (s *PointsService) Debit(ctx context.Context, venueID, tableID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must not be negative")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.Redis.Eval(storeCtx, debitScript, []string{pointsKey(venueID, tableID)}, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) < 2 {
		return 0, fmt.Errorf("unexpected script reply: %v", res)
	}
	st, _ := arr[0].(string)
	balance := replyInt(arr[1])

	if st == "insufficient_points" {
		return balance, status.ErrInsufficientPoints
	}

	monitoring.TrackQueueOperation("debit", venueID, "success")
	s.broadcaster.Publish(venueID, models.EventPointsChanged, models.PointsBalance{
		VenueID: venueID,
		TableID: tableID,
		Balance: balance,
	})

	return balance, nil
}

// Credit adds amount to the balance, creating the ledger key if needed.
func (s *PointsService) Credit(ctx context.Context, venueID, tableID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must not be negative")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	balance, err := s.Redis.IncrBy(storeCtx, pointsKey(venueID, tableID), amount).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", status.ErrUnavailable, err)
	}

	monitoring.TrackQueueOperation("credit", venueID, "success")
	s.broadcaster.Publish(venueID, models.EventPointsChanged, models.PointsBalance{
		VenueID: venueID,
		TableID: tableID,
		Balance: balance,
	})

	return balance, nil
}
