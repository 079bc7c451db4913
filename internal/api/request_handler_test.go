package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline-backend-go/internal/core"
	"lifeline-backend-go/internal/models"
)

type stubRequestService struct {
	sendErr      error
	respondErr   error
	lastDecision *bool
}

func (s *stubRequestService) SendRequest(_ context.Context, senderID, recipientName string) (*models.Request, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &models.Request{ID: "req-1", SenderID: senderID, Status: models.RequestStatusPending}, nil
}

func (s *stubRequestService) CancelRequest(context.Context, string, string) error { return nil }

func (s *stubRequestService) RespondToRequest(_ context.Context, _, _ string, accept bool) error {
	if s.respondErr != nil {
		return s.respondErr
	}
	s.lastDecision = &accept
	return nil
}

func (s *stubRequestService) ListSent(context.Context, string, models.RequestStatus) ([]*models.RequestView, error) {
	return []*models.RequestView{}, nil
}

func (s *stubRequestService) ListReceived(context.Context, string, models.RequestStatus) ([]*models.RequestView, error) {
	return []*models.RequestView{}, nil
}

func newRequestRouter(svc core.RequestService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	})
	h := NewRequestHandler(svc)
	router.POST("/requests", h.SendRequest)
	router.POST("/requests/:requestId/respond", h.RespondToRequest)
	router.GET("/requests/sent", h.ListSentRequests)
	return router
}

// TestSendRequestHandler verifies the created request is returned with 201.
func TestSendRequestHandler(t *testing.T) {
	router := newRequestRouter(&stubRequestService{}, "alice")
	rec := doJSON(t, router, http.MethodPost, "/requests", models.SendConnectionRequest{RecipientName: "Bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var request models.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &request))
	assert.Equal(t, models.RequestStatusPending, request.Status)
}

// TestSendRequestHandler_RecipientNotFound verifies the 404 mapping.
func TestSendRequestHandler_RecipientNotFound(t *testing.T) {
	router := newRequestRouter(&stubRequestService{sendErr: core.ErrRecipientNotFound}, "alice")
	rec := doJSON(t, router, http.MethodPost, "/requests", models.SendConnectionRequest{RecipientName: "Nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestRespondHandler_DecisionBinding verifies only "accept" and "decline"
// are admitted and translate to the right boolean.
func TestRespondHandler_DecisionBinding(t *testing.T) {
	svc := &stubRequestService{}
	router := newRequestRouter(svc, "bob")

	rec := doJSON(t, router, http.MethodPost, "/requests/req-1/respond", models.RespondToRequestRequest{Decision: "accept"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastDecision)
	assert.True(t, *svc.lastDecision)

	rec = doJSON(t, router, http.MethodPost, "/requests/req-1/respond", models.RespondToRequestRequest{Decision: "decline"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *svc.lastDecision)

	rec = doJSON(t, router, http.MethodPost, "/requests/req-1/respond", map[string]string{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestRespondHandler_Forbidden verifies a non-addressee gets 403.
func TestRespondHandler_Forbidden(t *testing.T) {
	router := newRequestRouter(&stubRequestService{respondErr: core.ErrNotRequestReceiver}, "carol")
	rec := doJSON(t, router, http.MethodPost, "/requests/req-1/respond", models.RespondToRequestRequest{Decision: "accept"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestListSentHandler verifies an empty listing encodes as a JSON array.
func TestListSentHandler(t *testing.T) {
	router := newRequestRouter(&stubRequestService{}, "alice")
	rec := doJSON(t, router, http.MethodGet, "/requests/sent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
