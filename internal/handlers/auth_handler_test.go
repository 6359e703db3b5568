package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jostincp/Encore-sub007/config"
)

func authTestConfig(t *testing.T, environment string) *config.Config {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	return &config.Config{
		Environment:          environment,
		JWTSecret:            handlerTestSecret,
		OperatorPasswordHash: string(hash),
		AccessTokenTTL:       time.Hour,
	}
}

func postJSON(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_OperatorLogin(t *testing.T) {
	h := NewAuthHandler(authTestConfig(t, "production"))

	c, rec := postJSON(`{"venue_id":"venue-1","login":"operator","password":"correct-horse"}`)

	err := h.OperatorLogin(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
}

func TestAuthHandler_OperatorLogin_WrongPassword(t *testing.T) {
	h := NewAuthHandler(authTestConfig(t, "production"))

	c, _ := postJSON(`{"venue_id":"venue-1","login":"operator","password":"wrong"}`)

	err := h.OperatorLogin(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthHandler_OperatorLogin_NotConfigured(t *testing.T) {
	cfg := authTestConfig(t, "production")
	cfg.OperatorPasswordHash = ""
	h := NewAuthHandler(cfg)

	c, _ := postJSON(`{"venue_id":"venue-1","login":"operator","password":"anything"}`)

	err := h.OperatorLogin(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestAuthHandler_TableToken_DevelopmentOnly(t *testing.T) {
	h := NewAuthHandler(authTestConfig(t, "production"))

	c, _ := postJSON(`{"venue_id":"venue-1"}`)

	err := h.TableToken(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestAuthHandler_TableToken(t *testing.T) {
	h := NewAuthHandler(authTestConfig(t, "development"))

	c, rec := postJSON(`{"venue_id":"venue-1"}`)

	err := h.TableToken(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
	assert.True(t, strings.HasPrefix(body["table_id"].(string), "table-"))
}
