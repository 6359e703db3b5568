package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jostincp/Encore-sub007/internal/status"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode string
	}{
		{"duplicate song", status.ErrDuplicateSong, http.StatusConflict, "DUPLICATE_SONG"},
		{"insufficient points", status.ErrInsufficientPoints, http.StatusPaymentRequired, "INSUFFICIENT_POINTS"},
		{"not found", status.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", status.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"invalid state", status.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{"unavailable", status.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"plain error", errors.New("lane must be one of priority, standard"), http.StatusBadRequest, "VALIDATION"},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := respondError(c, tt.err)

			require.NoError(t, err)
			assert.Equal(t, tt.wantHTTP, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}
