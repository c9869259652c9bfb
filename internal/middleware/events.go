package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EventDispatcher hands an event off for asynchronous webhook delivery.
type EventDispatcher interface {
	Dispatch(workspaceID, event string, data interface{})
}

// EmitEvents enqueues a webhook event after a state-changing request
// succeeds. The hand-off is asynchronous; delivery outcome never affects
// the response already being written.
func EmitEvents(dispatcher EventDispatcher, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		var action string
		switch c.Request.Method {
		case http.MethodPost:
			action = "created"
		case http.MethodPut, http.MethodPatch:
			action = "updated"
		case http.MethodDelete:
			action = "deleted"
		default:
			return
		}

		workspaceID := c.GetString("workspace_id")
		if workspaceID == "" {
			return
		}

		dispatcher.Dispatch(workspaceID, resource+"."+action, gin.H{
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"status":     status,
			"request_id": c.GetString("request_id"),
		})
	}
}
