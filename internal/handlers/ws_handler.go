package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/jostincp/Encore-sub007/internal/broadcast"
	"github.com/jostincp/Encore-sub007/security"
)

const (
	writeWait    = 5 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Tokens already gate the endpoint; venue displays connect from
	// arbitrary origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

type WSHandler struct {
	hub *broadcast.Hub
}

func NewWSHandler(hub *broadcast.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Subscribe - live venue event stream over websocket. Delivery is
// best-effort; clients fetch a fresh snapshot after (re)connecting.
func (h *WSHandler) Subscribe(c echo.Context) error {
	claims := security.ClaimsFrom(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	venueID := c.Param("venueId")
	if venueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID required")
	}
	if claims.VenueID != venueID {
		return echo.NewHTTPError(http.StatusForbidden, "Token is scoped to another venue")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sub := h.hub.Subscribe(venueID)

	// Reader only watches for close/pong; clients never send events.
	go func() {
		defer sub.Close()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	defer func() {
		sub.Close()
		_ = conn.Close()
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				slog.Debug("websocket write failed", "venue_id", venueID, "error", err)
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
