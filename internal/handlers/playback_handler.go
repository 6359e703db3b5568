package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jostincp/Encore-sub007/internal/services"
	"github.com/jostincp/Encore-sub007/models"
)

type PlaybackHandler struct {
	playback *services.PlaybackService
}

func NewPlaybackHandler(playback *services.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{playback: playback}
}

// Skip - end the current track as skipped and advance
func (h *PlaybackHandler) Skip(c echo.Context) error {
	venueID := c.Param("venueId")
	if venueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID required")
	}

	next, err := h.playback.Skip(c.Request().Context(), venueID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, playbackResponse(next))
}

// MarkPlayed - end the current track as completed and advance
func (h *PlaybackHandler) MarkPlayed(c echo.Context) error {
	venueID := c.Param("venueId")
	if venueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID required")
	}

	next, err := h.playback.MarkPlayed(c.Request().Context(), venueID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, playbackResponse(next))
}

// Start - promote the next entry on an idle venue
func (h *PlaybackHandler) Start(c echo.Context) error {
	venueID := c.Param("venueId")
	if venueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID required")
	}

	entry, err := h.playback.Start(c.Request().Context(), venueID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, playbackResponse(entry))
}

// NowPlaying - the current entry, if any
func (h *PlaybackHandler) NowPlaying(c echo.Context) error {
	venueID := c.Param("venueId")
	if venueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID required")
	}

	entry, err := h.playback.NowPlaying(c.Request().Context(), venueID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, playbackResponse(entry))
}

func playbackResponse(entry *models.QueueEntry) map[string]any {
	if entry == nil {
		return map[string]any{"state": "idle"}
	}
	return map[string]any{"state": "playing", "entry": entry}
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "expected a positive integer")
	}
	return n, nil
}
