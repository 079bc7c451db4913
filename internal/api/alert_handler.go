package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeline-backend-go/internal/core"
	"lifeline-backend-go/internal/models"
)

// AlertHandler handles API endpoints related to emergency alerts, including
// the countdown-armed dispatch flow.
type AlertHandler struct {
	alertService  core.AlertService
	armingService core.ArmingService
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(as core.AlertService, arm core.ArmingService) *AlertHandler {
	return &AlertHandler{alertService: as, armingService: arm}
}

// mapAlertErrorToStatus maps errors from the alert services to HTTP status codes.
func mapAlertErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrAlertNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrAlertNotFound.Error()}
	case errors.Is(err, core.ErrNoAcceptedRequest):
		statusCode = http.StatusPreconditionFailed
		errResponse = ErrorResponse{Error: core.ErrNoAcceptedRequest.Error()}
	case errors.Is(err, core.ErrNotAlertReceiver):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrNotAlertReceiver.Error()}
	case errors.Is(err, core.ErrNotAlertParticipant):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrNotAlertParticipant.Error()}
	case errors.Is(err, core.ErrInvalidAudio):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidAudio.Error()}
	case errors.Is(err, core.ErrUploadFailed):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: core.ErrUploadFailed.Error()}
	case errors.Is(err, core.ErrAlreadyArming):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrAlreadyArming.Error()}
	case errors.Is(err, core.ErrNotArming):
		statusCode = http.StatusPreconditionFailed
		errResponse = ErrorResponse{Error: core.ErrNotArming.Error()}
	case errors.Is(err, core.ErrInvalidCountdown):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidCountdown.Error()}
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

// SendAlert handles POST /alerts
func (h *AlertHandler) SendAlert(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.SendAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	alert, err := h.alertService.SendAlert(c.Request.Context(), userID.(string), req)
	if err != nil {
		mapAlertErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

// ArmAlert handles POST /alerts/arm
func (h *AlertHandler) ArmAlert(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.ArmAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.armingService.Arm(c.Request.Context(), userID.(string), req); err != nil {
		mapAlertErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "Alert armed"})
}

// CancelArmedAlert handles DELETE /alerts/arm
func (h *AlertHandler) CancelArmedAlert(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	if err := h.armingService.Cancel(userID.(string)); err != nil {
		mapAlertErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Armed alert cancelled"})
}

// GetArmedStatus handles GET /alerts/arm
func (h *AlertHandler) GetArmedStatus(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	c.JSON(http.StatusOK, ArmedStatusResponse{Armed: h.armingService.IsArmed(userID.(string))})
}

// GetAlert handles GET /alerts/:alertId
func (h *AlertHandler) GetAlert(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	alertID := c.Param("alertId")
	if alertID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Alert ID is required"})
		return
	}

	alert, err := h.alertService.ViewAlert(c.Request.Context(), userID.(string), alertID)
	if err != nil {
		mapAlertErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// DeleteAlert handles DELETE /alerts/:alertId
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	alertID := c.Param("alertId")
	if alertID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Alert ID is required"})
		return
	}

	if err := h.alertService.DeleteAlert(c.Request.Context(), userID.(string), alertID); err != nil {
		mapAlertErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Alert deleted"})
}

// ListReceivedAlerts handles GET /alerts
func (h *AlertHandler) ListReceivedAlerts(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	alerts, err := h.alertService.ListReceivedAlerts(c.Request.Context(), userID.(string))
	if err != nil {
		mapAlertErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}
