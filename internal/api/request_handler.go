package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeline-backend-go/internal/core"
	"lifeline-backend-go/internal/models"
)

// RequestHandler handles API endpoints related to connection requests.
type RequestHandler struct {
	requestService core.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(rs core.RequestService) *RequestHandler {
	return &RequestHandler{requestService: rs}
}

// mapRequestErrorToStatus maps errors from core.RequestService to HTTP status codes.
func mapRequestErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrRecipientNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrRecipientNotFound.Error()}
	case errors.Is(err, core.ErrRequestNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrRequestNotFound.Error()}
	case errors.Is(err, core.ErrCannotRequestSelf):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrCannotRequestSelf.Error()}
	case errors.Is(err, core.ErrNotRequestReceiver), errors.Is(err, core.ErrNotRequestSender):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: "User is not a party to this request"}
	case errors.Is(err, core.ErrInvalidStatusFilter):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidStatusFilter.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUserNotFound.Error()}
	default:
		log.Printf("Internal Server Error: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// SendRequest handles POST /requests
func (h *RequestHandler) SendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.SendConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	request, err := h.requestService.SendRequest(c.Request.Context(), userID.(string), req.RecipientName)
	if err != nil {
		mapRequestErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// CancelRequest handles DELETE /requests/:requestId
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	requestID := c.Param("requestId")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Request ID is required"})
		return
	}

	if err := h.requestService.CancelRequest(c.Request.Context(), userID.(string), requestID); err != nil {
		mapRequestErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Request cancelled"})
}

// RespondToRequest handles POST /requests/:requestId/respond
func (h *RequestHandler) RespondToRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	requestID := c.Param("requestId")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Request ID is required"})
		return
	}

	var req models.RespondToRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	accept := req.Decision == "accept"
	if err := h.requestService.RespondToRequest(c.Request.Context(), userID.(string), requestID, accept); err != nil {
		mapRequestErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Response recorded"})
}

// ListSentRequests handles GET /requests/sent?status=pending
func (h *RequestHandler) ListSentRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	status := models.RequestStatus(c.Query("status"))
	views, err := h.requestService.ListSent(c.Request.Context(), userID.(string), status)
	if err != nil {
		mapRequestErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ListReceivedRequests handles GET /requests/received?status=pending
func (h *RequestHandler) ListReceivedRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	status := models.RequestStatus(c.Query("status"))
	views, err := h.requestService.ListReceived(c.Request.Context(), userID.(string), status)
	if err != nil {
		mapRequestErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
