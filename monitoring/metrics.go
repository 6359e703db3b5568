package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "venue_queue_depth",
			Help: "Current pending entries per venue and lane",
		},
		[]string{"venue_id", "lane"},
	)

	nowPlaying = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "venue_now_playing",
			Help: "1 when the venue has a playing entry, 0 when idle",
		},
		[]string{"venue_id"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue mutations by operation and outcome",
		},
		[]string{"operation", "venue_id", "status"},
	)

	broadcastFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_failures_total",
			Help: "Broadcast deliveries that failed, by sink",
		},
		[]string{"sink"},
	)
)

// TrackQueueOperation records one queue mutation outcome.
func TrackQueueOperation(operation, venueID, status string) {
	queueOperations.WithLabelValues(operation, venueID, status).Inc()
}

// TrackBroadcastFailure records a failed sink delivery.
func TrackBroadcastFailure(sink string) {
	broadcastFailures.WithLabelValues(sink).Inc()
}

// Monitor periodically scans the coordination store and exports queue depth
// and playback gauges for every active venue. Venues seen on a previous
// scan but absent now get their gauges zeroed so a drained queue or idle
// venue does not report stale values.
type Monitor struct {
	redis    *redis.Client
	interval time.Duration
	stopChan chan struct{}

	lastDepth   map[string]map[string]struct{}
	lastPlaying map[string]struct{}
}

func NewMonitor(redisClient *redis.Client, interval time.Duration) *Monitor {
	return &Monitor{
		redis:       redisClient,
		interval:    interval,
		stopChan:    make(chan struct{}),
		lastDepth:   make(map[string]map[string]struct{}),
		lastPlaying: make(map[string]struct{}),
	}
}

// Start runs the collection loop until Stop is called.
func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.collectQueueMetrics(context.Background())
			case <-m.stopChan:
				return
			}
		}
	}()
}

func (m *Monitor) Stop() {
	close(m.stopChan)
}

func (m *Monitor) collectQueueMetrics(ctx context.Context) {
	for _, lane := range []string{"priority", "standard"} {
		keys, err := m.redis.Keys(ctx, "queue:"+lane+":*").Result()
		if err != nil {
			slog.Warn("metrics scan failed", "lane", lane, "error", err)
			continue
		}
		seen := make(map[string]struct{}, len(keys))
		for _, key := range keys {
			venueID := key[len("queue:"+lane+":"):]
			length, err := m.redis.LLen(ctx, key).Result()
			if err != nil {
				continue
			}
			seen[venueID] = struct{}{}
			queueDepth.WithLabelValues(venueID, lane).Set(float64(length))
		}
		for venueID := range m.lastDepth[lane] {
			if _, ok := seen[venueID]; !ok {
				queueDepth.WithLabelValues(venueID, lane).Set(0)
			}
		}
		m.lastDepth[lane] = seen
	}

	playingKeys, err := m.redis.Keys(ctx, "nowplaying:*").Result()
	if err != nil {
		return
	}
	seen := make(map[string]struct{}, len(playingKeys))
	for _, key := range playingKeys {
		venueID := key[len("nowplaying:"):]
		seen[venueID] = struct{}{}
		nowPlaying.WithLabelValues(venueID).Set(1)
	}
	for venueID := range m.lastPlaying {
		if _, ok := seen[venueID]; !ok {
			nowPlaying.WithLabelValues(venueID).Set(0)
		}
	}
	m.lastPlaying = seen
}
