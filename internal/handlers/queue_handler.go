package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jostincp/Encore-sub007/internal/history"
	"github.com/jostincp/Encore-sub007/internal/services"
	"github.com/jostincp/Encore-sub007/models"
	"github.com/jostincp/Encore-sub007/security"
)

type QueueHandler struct {
	queue   *services.QueueService
	pricing services.PricingFunc
	history *history.Recorder
}

func NewQueueHandler(queue *services.QueueService, pricing services.PricingFunc, recorder *history.Recorder) *QueueHandler {
	return &QueueHandler{
		queue:   queue,
		pricing: pricing,
		history: recorder,
	}
}

// AddRequest - submit a song request for the caller's table
func (h *QueueHandler) AddRequest(c echo.Context) error {
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

	var req struct {
		SongID  string `json:"song_id"`
		Lane    string `json:"lane"`
		TableID string `json:"table_id"` // admin only: request on behalf of a table
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	tableID := claims.Subject
	if req.TableID != "" && claims.Admin() {
		tableID = req.TableID
	}

	lane := models.Lane(req.Lane)
	if lane == "" {
		lane = models.LaneStandard
	}

	cost, err := h.pricing(venueID, lane)
	if err != nil {
		return respondError(c, err)
	}

	entry, err := h.queue.AddRequest(c.Request().Context(), venueID, tableID, req.SongID, lane, cost)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, entry)
}

// RemoveRequest - cancel a pending request (requester or admin)
func (h *QueueHandler) RemoveRequest(c echo.Context) error {
	claims := security.ClaimsFrom(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	venueID := c.Param("venueId")
	entryID := c.Param("entryId")
	if venueID == "" || entryID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID and entry ID required")
	}

	err := h.queue.RemoveRequest(c.Request().Context(), venueID, entryID, claims.Subject, claims.Admin())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "removed"})
}

// GetSnapshot - ordered queue plus now-playing
func (h *QueueHandler) GetSnapshot(c echo.Context) error {
	venueID := c.Param("venueId")
	if venueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID required")
	}

	snapshot, err := h.queue.GetSnapshot(c.Request().Context(), venueID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, snapshot)
}

// GetPrice - quote the points cost per lane
func (h *QueueHandler) GetPrice(c echo.Context) error {
	venueID := c.Param("venueId")
	lane := models.Lane(c.QueryParam("lane"))
	if lane == "" {
		lane = models.LaneStandard
	}

	cost, err := h.pricing(venueID, lane)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"venue_id": venueID,
		"lane":     lane,
		"points":   cost,
	})
}

// GetHistory - recently finished tracks for a venue (operator only)
func (h *QueueHandler) GetHistory(c echo.Context) error {
	venueID := c.Param("venueId")
	if venueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID required")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := parsePositiveInt(raw); err == nil {
			limit = n
		}
	}

	tracks, err := h.history.Recent(venueID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load history")
	}

	return c.JSON(http.StatusOK, tracks)
}
