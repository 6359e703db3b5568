package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jostincp/Encore-sub007/internal/history"
	"github.com/jostincp/Encore-sub007/internal/services"
	"github.com/jostincp/Encore-sub007/models"
	"github.com/jostincp/Encore-sub007/security"
)

const handlerTestSecret = "handler-test-secret"

// nopPublisher satisfies broadcast.Publisher for tests that do not assert
// on events.
type nopPublisher struct{}

func (nopPublisher) Publish(string, models.EventType, any) {}

func fixedPricing(cost int64) services.PricingFunc {
	return func(string, models.Lane) (int64, error) {
		return cost, nil
	}
}

func newAuthedContext(t *testing.T, method, body, role, subject, venueID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	if role != "" {
		token, _, err := security.NewAccessToken(handlerTestSecret, subject, venueID, role, time.Hour)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// authed runs the handler behind the real token middleware so claims land
// on the context the same way they do in production.
func authed(h echo.HandlerFunc) echo.HandlerFunc {
	return security.JWTMiddleware(handlerTestSecret)(h)
}

func TestQueueHandler_AddRequest_Unauthorized(t *testing.T) {
	h := NewQueueHandler(nil, fixedPricing(10), nil)

	c, _ := newAuthedContext(t, http.MethodPost, `{"song_id":"song-1"}`, "", "", "")
	c.SetParamNames("venueId")
	c.SetParamValues("venue-1")

	err := h.AddRequest(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestQueueHandler_AddRequest_VenueMismatch(t *testing.T) {
	h := NewQueueHandler(nil, fixedPricing(10), nil)

	c, _ := newAuthedContext(t, http.MethodPost, `{"song_id":"song-1"}`,
		security.RoleTable, "table-1", "venue-2")
	c.SetParamNames("venueId")
	c.SetParamValues("venue-1")

	err := authed(h.AddRequest)(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestQueueHandler_AddRequest_PricingError(t *testing.T) {
	pricing := func(string, models.Lane) (int64, error) {
		return 0, errors.New("unknown lane")
	}
	h := NewQueueHandler(nil, pricing, nil)

	c, rec := newAuthedContext(t, http.MethodPost, `{"song_id":"song-1","lane":"vip"}`,
		security.RoleTable, "table-1", "venue-1")
	c.SetParamNames("venueId")
	c.SetParamValues("venue-1")

	err := authed(h.AddRequest)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestQueueHandler_RemoveRequest_MissingEntryID(t *testing.T) {
	h := NewQueueHandler(nil, fixedPricing(10), nil)

	c, _ := newAuthedContext(t, http.MethodDelete, "",
		security.RoleTable, "table-1", "venue-1")
	c.SetParamNames("venueId")
	c.SetParamValues("venue-1")

	err := authed(h.RemoveRequest)(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestQueueHandler_GetPrice(t *testing.T) {
	h := NewQueueHandler(nil, fixedPricing(25), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?lane=priority", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("venueId")
	c.SetParamValues("venue-1")

	err := h.GetPrice(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "priority", body["lane"])
	assert.Equal(t, float64(25), body["points"])
}

func TestQueueHandler_GetHistory(t *testing.T) {
	recorder, err := history.NewRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer recorder.Close()

	require.NoError(t, recorder.Deliver(context.Background(), models.VenueEvent{
		Type:    models.EventTrackEnded,
		VenueID: "venue-1",
		Payload: models.QueueEntry{
			ID:      "e-1",
			VenueID: "venue-1",
			SongID:  "song-1",
			Lane:    models.LaneStandard,
			TableID: "table-1",
			Status:  models.StatusCompleted,
		},
	}))

	h := NewQueueHandler(nil, fixedPricing(10), recorder)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("venueId")
	c.SetParamValues("venue-1")

	err = h.GetHistory(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var tracks []models.PlayedTrack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tracks))
	require.Len(t, tracks, 1)
	assert.Equal(t, "e-1", tracks[0].EntryID)
}
