package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"whchecker-backend/internal/shared/server/respond"
)

const (
	slackSignatureHeader = "X-Slack-Signature"
	slackTimestampHeader = "X-Slack-Request-Timestamp"
	slackSignatureMaxAge = 5 * time.Minute
	maxSlackBodyBytes    = 1 << 20
)

// ErrInvalidSignature is returned when a Slack request fails verification.
var ErrInvalidSignature = errors.New("invalid slack signature")

// VerifySlackSignature checks a v0 signature over "v0:<timestamp>:<body>".
func VerifySlackSignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: signing secret not configured", ErrInvalidSignature)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	if math.Abs(now.Sub(time.Unix(ts, 0)).Seconds()) > slackSignatureMaxAge.Seconds() {
		return fmt.Errorf("%w: stale timestamp", ErrInvalidSignature)
	}
	expected := SignSlackRequest(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return fmt.Errorf("%w: mismatch", ErrInvalidSignature)
	}
	return nil
}

// SignSlackRequest computes the v0 signature header value.
func SignSlackRequest(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

// SlackSignature rejects requests that are not signed with secret and restores
// the body for downstream handlers. A nil now uses time.Now.
func SlackSignature(secret string, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSlackBodyBytes))
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "bad_request", "unable to read body", nil)
			return
		}
		_ = c.Request.Body.Close()
		err = VerifySlackSignature(secret, c.GetHeader(slackTimestampHeader), c.GetHeader(slackSignatureHeader), body, now())
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "invalid_signature", "request signature verification failed", nil)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
