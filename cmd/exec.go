package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"github.com/jostincp/Encore-sub007/config"
	"github.com/jostincp/Encore-sub007/internal/broadcast"
	"github.com/jostincp/Encore-sub007/internal/handlers"
	"github.com/jostincp/Encore-sub007/internal/history"
	"github.com/jostincp/Encore-sub007/internal/services"
	"github.com/jostincp/Encore-sub007/monitoring"
	"github.com/jostincp/Encore-sub007/security"
	"github.com/jostincp/Encore-sub007/utils"
)

func Start() error {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Broadcast sinks: in-process websocket hub always, PubNub and the AMQP
	// bridge only when configured.
	hub := broadcast.NewHub()
	sinks := []broadcast.Sink{hub}

	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		sinks = append(sinks, broadcast.NewPubNubSink(pubnub.NewPubNub(pnConfig)))
	}

	if cfg.AMQPURL != "" {
		bridge := broadcast.NewAMQPBridge(cfg.AMQPURL, cfg.AMQPExchange)
		defer bridge.Close()
		sinks = append(sinks, bridge)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.HistoryDBPath), 0o755); err != nil {
		return err
	}
	recorder, err := history.NewRecorder(cfg.HistoryDBPath)
	if err != nil {
		return err
	}
	defer recorder.Close()
	sinks = append(sinks, recorder)

	broadcaster := broadcast.NewBroadcaster(5*time.Second, sinks...)

	// Initialize services
	queueService := services.NewQueueService(redisClient, broadcaster, cfg.StoreTimeout)
	playbackService := services.NewPlaybackService(redisClient, broadcaster, queueService, cfg.StoreTimeout)
	pointsService := services.NewPointsService(redisClient, broadcaster, cfg.StoreTimeout)

	pricing, err := services.NewPricing(cfg)
	if err != nil {
		return err
	}

	// Initialize handlers
	queueHandler := handlers.NewQueueHandler(queueService, pricing.Cost, recorder)
	playbackHandler := handlers.NewPlaybackHandler(playbackService)
	pointsHandler := handlers.NewPointsHandler(pointsService)
	wsHandler := handlers.NewWSHandler(hub)
	authHandler := handlers.NewAuthHandler(cfg)

	// Metrics
	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(redisClient, cfg.MetricsInterval)
		monitor.Start()

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics listener stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	rateLimiter := security.NewRateLimiter(redisClient)

	// Public endpoints
	e.POST("/api/v1/auth/operator/login", authHandler.OperatorLogin)
	if cfg.Environment == "development" {
		e.POST("/api/v1/auth/table-token", authHandler.TableToken)
	}
	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Everything below requires a venue-scoped token.
	api := e.Group("/api/v1", security.JWTMiddleware(cfg.JWTSecret))

	// Queue endpoints
	api.POST("/queue/:venueId/requests", queueHandler.AddRequest,
		rateLimiter.AntiBotMiddleware(), rateLimiter.RequestRateLimit(10))
	api.DELETE("/queue/:venueId/requests/:entryId", queueHandler.RemoveRequest)
	api.GET("/queue/:venueId", queueHandler.GetSnapshot)
	api.GET("/queue/:venueId/price", queueHandler.GetPrice)
	api.GET("/queue/:venueId/history", queueHandler.GetHistory, security.RequireAdmin())

	// Player endpoints (operator controlled)
	api.GET("/player/:venueId", playbackHandler.NowPlaying)
	api.POST("/player/:venueId/skip", playbackHandler.Skip, security.RequireAdmin())
	api.POST("/player/:venueId/played", playbackHandler.MarkPlayed, security.RequireAdmin())
	api.POST("/player/:venueId/start", playbackHandler.Start, security.RequireAdmin())

	// Points endpoints
	api.GET("/points/:venueId/:tableId", pointsHandler.GetBalance)
	api.POST("/points/:venueId/:tableId/topup", pointsHandler.TopUp, security.RequireAdmin())

	// Live subscription
	api.GET("/ws/:venueId", wsHandler.Subscribe)

	// Start server
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(":" + cfg.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if monitor != nil {
		monitor.Stop()
	}
	// Let in-flight broadcasts drain before sinks close.
	broadcaster.Wait()

	return nil
}
