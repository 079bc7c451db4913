package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeline-backend-go/internal/core"
	"lifeline-backend-go/internal/models"
)

type stubNotificationService struct {
	updates chan []*models.Request
	subErr  error
}

func (s *stubNotificationService) NotifyUser(context.Context, string, string, string, map[string]string) error {
	return nil
}

func (s *stubNotificationService) SubscribeToIncoming(context.Context, string) (*core.Subscription, error) {
	if s.subErr != nil {
		return nil, s.subErr
	}
	return &core.Subscription{Updates: s.updates}, nil
}

// closeNotifyingRecorder wraps httptest.ResponseRecorder with the
// http.CloseNotifier implementation gin's Context.Stream requires.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newCloseNotifyingRecorder() *closeNotifyingRecorder {
	return &closeNotifyingRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}

func (c *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return c.closed
}

func newStreamRouter(svc core.NotificationService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	})
	h := NewStreamHandler(svc, zap.NewNop())
	router.GET("/requests/stream", h.StreamIncomingRequests)
	return router
}

// TestStreamIncomingRequests verifies queued updates are written as
// server-sent events and the stream ends when the subscription closes.
func TestStreamIncomingRequests(t *testing.T) {
	updates := make(chan []*models.Request, 1)
	updates <- []*models.Request{
		{ID: "req-1", SenderID: "alice", ReceiverID: "bob", Status: models.RequestStatusPending},
	}
	close(updates)
	router := newStreamRouter(&stubNotificationService{updates: updates}, "bob")

	rec := newCloseNotifyingRecorder()
	req := httptest.NewRequest(http.MethodGet, "/requests/stream", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event:requests")
	assert.Contains(t, body, `"req-1"`)
}

// TestStreamIncomingRequests_Unauthenticated verifies the stream requires an
// identity in the request context.
func TestStreamIncomingRequests_Unauthenticated(t *testing.T) {
	router := newStreamRouter(&stubNotificationService{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/requests/stream", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestStreamIncomingRequests_SubscribeFailure verifies a watcher failure is
// reported instead of holding a dead connection open.
func TestStreamIncomingRequests_SubscribeFailure(t *testing.T) {
	router := newStreamRouter(&stubNotificationService{subErr: assert.AnError}, "bob")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/requests/stream", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
