package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jostincp/Encore-sub007/internal/services"
	"github.com/jostincp/Encore-sub007/models"
)

func TestPlaybackHandler_NowPlaying_Idle(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()

	queue := services.NewQueueService(db, nopPublisher{}, 2*time.Second)
	playback := services.NewPlaybackService(db, nopPublisher{}, queue, 2*time.Second)
	h := NewPlaybackHandler(playback)

	mock.ExpectGet("nowplaying:venue-1").RedisNil()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("venueId")
	c.SetParamValues("venue-1")

	err := h.NowPlaying(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "idle", body["state"])
	assert.NotContains(t, body, "entry")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaybackHandler_Skip_MissingVenue(t *testing.T) {
	h := NewPlaybackHandler(nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Skip(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestPlaybackResponse(t *testing.T) {
	idle := playbackResponse(nil)
	assert.Equal(t, "idle", idle["state"])

	entry := &models.QueueEntry{ID: "e-1", Status: models.StatusPlaying}
	playing := playbackResponse(entry)
	assert.Equal(t, "playing", playing["state"])
	assert.Equal(t, entry, playing["entry"])
}

func TestParsePositiveInt(t *testing.T) {
	n, err := parsePositiveInt("7")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = parsePositiveInt("0")
	assert.Error(t, err)

	_, err = parsePositiveInt("abc")
	assert.Error(t, err)
}
