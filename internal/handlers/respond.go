package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jostincp/Encore-sub007/internal/status"
)

// respondError maps engine errors onto the wire format. Sentinels carry
// their own HTTP codes; anything else from the service layer is an input
// validation failure.
func respondError(c echo.Context, err error) error {
	code := status.Code(err)
	httpCode := status.HTTPCode(err)
	if code == "INTERNAL" {
		code = "VALIDATION"
		httpCode = http.StatusBadRequest
	}
	return c.JSON(httpCode, map[string]string{
		"code":  code,
		"error": err.Error(),
	})
}
