package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeline-backend-go/internal/core"
)

// StreamHandler serves live updates over server-sent events.
type StreamHandler struct {
	notificationService core.NotificationService
	logger              *zap.Logger
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(ns core.NotificationService, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{notificationService: ns, logger: logger}
}

// StreamIncomingRequests handles GET /requests/stream. It holds the
// connection open and emits a "requests" event carrying the caller's full
// pending-request set whenever it changes. The subscription is torn down when
// the client disconnects.
func (h *StreamHandler) StreamIncomingRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	sub, err := h.notificationService.SubscribeToIncoming(c.Request.Context(), userID.(string))
	if err != nil {
		h.logger.Error("Failed to open request subscription",
			zap.String("userID", userID.(string)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to open request stream"})
		return
	}
	defer sub.Unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case requests, ok := <-sub.Updates:
			if !ok {
				return false
			}
			c.SSEvent("requests", requests)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
