package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jostincp/Encore-sub007/internal/services"
	"github.com/jostincp/Encore-sub007/security"
)

type PointsHandler struct {
	points *services.PointsService
}

func NewPointsHandler(points *services.PointsService) *PointsHandler {
	return &PointsHandler{points: points}
}

// GetBalance - table balance; tables see only their own
func (h *PointsHandler) GetBalance(c echo.Context) error {
	claims := security.ClaimsFrom(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	venueID := c.Param("venueId")
	tableID := c.Param("tableId")
	if venueID == "" || tableID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID and table ID required")
	}
	if !claims.Admin() && claims.Subject != tableID {
		return echo.NewHTTPError(http.StatusForbidden, "Balance is visible to its own table only")
	}

	balance, err := h.points.Balance(c.Request().Context(), venueID, tableID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"venue_id": venueID,
		"table_id": tableID,
		"balance":  balance,
	})
}

// TopUp - credit a table balance (operator only)
func (h *PointsHandler) TopUp(c echo.Context) error {
	venueID := c.Param("venueId")
	tableID := c.Param("tableId")
	if venueID == "" || tableID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID and table ID required")
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	balance, err := h.points.Credit(c.Request().Context(), venueID, tableID, req.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"venue_id": venueID,
		"table_id": tableID,
		"balance":  balance,
	})
}
