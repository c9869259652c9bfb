package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UsageRecorder receives one record per admitted request once its final
// status is known. Implementations must not block.
type UsageRecorder interface {
	Record(clientID uuid.UUID, endpoint, method string, status int)
}

// ClientToucher updates bookkeeping on the client record outside the
// request path.
type ClientToucher interface {
	UpdateLastUsed(ctx context.Context, id uuid.UUID)
}

// Gateway authenticates every request with the X-API-Key header and
// translates the verdict into a response. Admitted requests continue to
// the proxied handler and are usage-recorded with the handler's status
// after it completes. A missing and a wrong key produce the identical
// message so keys cannot be enumerated.
func Gateway(authenticator *service.Authenticator, recorder UsageRecorder, toucher ClientToucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := c.GetHeader("X-API-Key")

		verdict := authenticator.Authenticate(c.Request.Context(), rawKey, c.Request.URL.Path, c.Request.Method)

		switch verdict.Status {
		case service.StatusUnauthenticated:
			if verdict.Internal {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error": "Service temporarily unavailable",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid API key",
				})
			}
			c.Abort()
			return

		case service.StatusRateLimited:
			retryAfter := int(verdict.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			setRateHeaders(c, verdict)
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		setRateHeaders(c, verdict)

		client := verdict.Client
		c.Set("client", client)
		c.Set("client_id", client.ID)
		c.Set("workspace_id", client.WorkspaceID)

		if toucher != nil {
			go toucher.UpdateLastUsed(context.Background(), client.ID)
		}

		c.Next()

		if recorder != nil {
			recorder.Record(client.ID, c.Request.URL.Path, c.Request.Method, c.Writer.Status())
		}
	}
}

// RequireScope gates a route group on one of the client's allowed scopes
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if scope == "" {
			c.Next()
			return
		}

		clientValue, exists := c.Get("client")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		client := clientValue.(*models.Client)
		for _, s := range client.Scopes {
			if s == scope {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": fmt.Sprintf("Missing required scope %q", scope),
		})
		c.Abort()
	}
}

func setRateHeaders(c *gin.Context, verdict service.Verdict) {
	if verdict.Client != nil {
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", verdict.Client.RequestsPerWindow))
	}
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", verdict.Remaining))
	if !verdict.ResetAt.IsZero() {
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", verdict.ResetAt.Unix()))
	}
}
