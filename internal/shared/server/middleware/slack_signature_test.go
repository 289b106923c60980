package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func TestSignSlackRequestKnownVector(t *testing.T) {
	body := []byte("token=xyzz0WbapA4vBCDEFasx0q6G&team_id=T1DC2JH3J&team_domain=testteamnow&channel_id=G8PSS9T3V&channel_name=foobar&user_id=U2CERLKJA&user_name=roadrunner&command=%2Fwebhook-collect&text=&response_url=https%3A%2F%2Fhooks.slack.com%2Fcommands%2FT1DC2JH3J%2F397700885554%2F96rGlfmibIGlgcZRskXaIFfN&trigger_id=398738663015.47445629121.803a0bc887a14d10d2c447fce8b6703c")
	got := SignSlackRequest(testSecret, "1531420618", body)
	assert.Equal(t, "v0=a2114d57b48eac39b9ad189dd8316235a7b4a8d21a10bd27519666489c69b503", got)
}

func TestVerifySlackSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"type":"url_verification"}`)
	sig := SignSlackRequest(testSecret, ts, body)

	require.NoError(t, VerifySlackSignature(testSecret, ts, sig, body, now))
	assert.ErrorIs(t, VerifySlackSignature(testSecret, ts, sig, []byte("tampered"), now), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySlackSignature("other", ts, sig, body, now), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySlackSignature(testSecret, ts, sig, body, now.Add(6*time.Minute)), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySlackSignature(testSecret, "abc", sig, body, now), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySlackSignature("", ts, sig, body, now), ErrInvalidSignature)
}

func TestSlackSignatureMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Unix(1_700_000_000, 0)
	r := gin.New()
	r.Use(SlackSignature(testSecret, func() time.Time { return now }))
	r.POST("/slack/events", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})

	body := `{"type":"event_callback"}`
	ts := strconv.FormatInt(now.Unix(), 10)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", SignSlackRequest(testSecret, ts, []byte(body)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, body, resp.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "invalid_signature")
}
