package handler

import (
	"net/http"

	"github.com/aman-churiwal/event-gateway/internal/middleware"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	dispatcher middleware.EventDispatcher
}

func NewEventHandler(dispatcher middleware.EventDispatcher) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

// Send lets an operator fire an event by hand, typically to verify a new
// subscription end to end. Delivery is asynchronous; 202 only means the
// event was handed to the dispatcher.
func (h *EventHandler) Send(c *gin.Context) {
	var req struct {
		WorkspaceID string                 `json:"workspace_id" binding:"required"`
		Event       string                 `json:"event" binding:"required"`
		Data        map[string]interface{} `json:"data"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.dispatcher.Dispatch(req.WorkspaceID, req.Event, req.Data)

	c.JSON(http.StatusAccepted, gin.H{"message": "Event accepted for delivery"})
}
