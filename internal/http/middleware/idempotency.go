package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"seatengine/internal/utils"
)

const (
	idempotencyLockTTL   = 30 * time.Second
	idempotencyResultTTL = 24 * time.Hour
	idempotencyPending   = "PROCESSING"
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
	RequestHash string `json:"requestHash"`
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// replayable reports whether prev may answer a request whose body hashes to
// hash. Entries written before hashes were stored carry none and replay.
func (prev storedResponse) replayable(hash string) bool {
	return prev.RequestHash == "" || prev.RequestHash == hash
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Keys are scoped per caller. A key reused with a different body is
// rejected with 422. A nil client disables it; Redis errors fall through
// to the handler.
func Idempotency(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		if client == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"message":    "unreadable request body",
				"code":       "invalid_request",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := bodyHash(body)

		ctx := c.Request.Context()
		idemKey := fmt.Sprintf("idempotency:%d:%s", Caller(c).UserID, key)

		val, err := client.Get(ctx, idemKey).Result()
		switch {
		case err == nil && val == idempotencyPending:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"message":    "a request with this Idempotency-Key is in progress",
				"code":       "idempotency_in_progress",
				"retryable":  true,
				"request_id": GetRequestID(c),
			})
			return
		case err == nil:
			var prev storedResponse
			if json.Unmarshal([]byte(val), &prev) == nil {
				if !prev.replayable(hash) {
					c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
						"message":    "Idempotency-Key was already used with a different request body",
						"code":       "idempotency_key_reused",
						"request_id": GetRequestID(c),
					})
					return
				}
				c.Header("X-Idempotency-Hit", "true")
				c.Data(prev.Status, prev.ContentType, prev.Body)
				c.Abort()
				return
			}
		case !errors.Is(err, redis.Nil):
			utils.Logger().Warn("idempotency lookup failed", zap.Error(err), zap.String("request_id", GetRequestID(c)))
			c.Next()
			return
		}

		acquired, err := client.SetNX(ctx, idemKey, idempotencyPending, idempotencyLockTTL).Result()
		if err != nil || !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"message":    "concurrent request with this Idempotency-Key",
				"code":       "idempotency_in_progress",
				"retryable":  true,
				"request_id": GetRequestID(c),
			})
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// The response is already written; record it even if the client left.
		ctx = context.WithoutCancel(ctx)
		// Server side failures are not cached so the client may retry.
		if w.Status() >= 500 {
			client.Del(ctx, idemKey)
			return
		}
		raw, err := json.Marshal(storedResponse{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
			RequestHash: hash,
		})
		if err != nil {
			client.Del(ctx, idemKey)
			return
		}
		client.Set(ctx, idemKey, raw, idempotencyResultTTL)
	}
}
