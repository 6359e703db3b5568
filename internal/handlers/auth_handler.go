package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/jostincp/Encore-sub007/config"
	"github.com/jostincp/Encore-sub007/security"
	"github.com/jostincp/Encore-sub007/utils"
)

type AuthHandler struct {
	cfg *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// OperatorLogin - exchange the operator password for an operator token
func (h *AuthHandler) OperatorLogin(c echo.Context) error {
	var req struct {
		VenueID  string `json:"venue_id"`
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if req.VenueID == "" || req.Login == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID and login required")
	}

	if h.cfg.OperatorPasswordHash == "" {
		return echo.NewHTTPError(http.StatusForbidden, "Operator login is not configured")
	}
	if bcrypt.CompareHashAndPassword([]byte(h.cfg.OperatorPasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	token, exp, err := security.NewAccessToken(h.cfg.JWTSecret, req.Login, req.VenueID, security.RoleOperator, h.cfg.AccessTokenTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue token")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": exp,
	})
}

// TableToken - development helper standing in for QR provisioning, which
// normally issues table tokens out of band.
func (h *AuthHandler) TableToken(c echo.Context) error {
	if h.cfg.Environment != "development" {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	var req struct {
		VenueID string `json:"venue_id"`
		TableID string `json:"table_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if req.VenueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Venue ID required")
	}

	tableID := req.TableID
	if tableID == "" {
		code, err := utils.GenerateCode(4)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate table id")
		}
		tableID = "table-" + code
	}

	token, exp, err := security.NewAccessToken(h.cfg.JWTSecret, tableID, req.VenueID, security.RoleTable, h.cfg.AccessTokenTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue token")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"token":      token,
		"table_id":   tableID,
		"expires_at": exp,
	})
}
