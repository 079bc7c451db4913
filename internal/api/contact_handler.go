package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeline-backend-go/internal/core"
	"lifeline-backend-go/internal/models"
)

// ContactHandler handles API endpoints related to emergency contacts.
type ContactHandler struct {
	contactService core.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(cs core.ContactService) *ContactHandler {
	return &ContactHandler{contactService: cs}
}

// mapContactErrorToStatus maps errors from core.ContactService to HTTP status codes.
func mapContactErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrContactNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrContactNotFound.Error()}
	case errors.Is(err, core.ErrContactAlreadyExists):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrContactAlreadyExists.Error()}
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

// AddContact handles POST /contacts
func (h *ContactHandler) AddContact(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.contactService.AddContact(c.Request.Context(), userID.(string), req); err != nil {
		mapContactErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Emergency contact added"})
}

// ListContacts handles GET /contacts
func (h *ContactHandler) ListContacts(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	contacts, err := h.contactService.ListContacts(c.Request.Context(), userID.(string))
	if err != nil {
		mapContactErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// RemoveContact handles DELETE /contacts/:phone
func (h *ContactHandler) RemoveContact(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	phone := c.Param("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Contact phone number is required"})
		return
	}

	if err := h.contactService.RemoveContact(c.Request.Context(), userID.(string), phone); err != nil {
		mapContactErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Emergency contact removed"})
}
