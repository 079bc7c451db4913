package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeline-backend-go/internal/core"
	"lifeline-backend-go/internal/db"
	"lifeline-backend-go/internal/middleware"
)

// SetupRoutes configures all application routes with their handlers and
// middleware. Global middleware (logging, recovery, CORS) is applied to the
// router before this is called, in main.go.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	userService core.UserService,
	contactService core.ContactService,
	requestService core.RequestService,
	alertService core.AlertService,
	armingService core.ArmingService,
	notificationService core.NotificationService,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient, logger)

	authHandler := NewAuthHandler(userService)
	userHandler := NewUserHandler(userService)
	contactHandler := NewContactHandler(contactService)
	requestHandler := NewRequestHandler(requestService)
	alertHandler := NewAlertHandler(alertService, armingService)
	streamHandler := NewStreamHandler(notificationService, logger)

	apiV1 := router.Group("/api/v1")
	{
		usersGroup := apiV1.Group("/users")
		{
			// Called after client-side Firebase login/signup to ensure the
			// backend profile exists.
			usersGroup.POST("/initialize", authMW.VerifyToken(), authHandler.InitializeUserProfile)
			usersGroup.GET("/me", authMW.VerifyToken(), userHandler.GetCurrentUserProfile)
			usersGroup.PATCH("/me", authMW.VerifyToken(), userHandler.UpdateProfile)
			usersGroup.PUT("/me/device-token", authMW.VerifyToken(), userHandler.RegisterDeviceToken)
		}

		contactsGroup := apiV1.Group("/contacts", authMW.VerifyToken())
		{
			contactsGroup.POST("", contactHandler.AddContact)
			contactsGroup.GET("", contactHandler.ListContacts)
			contactsGroup.DELETE("/:phone", contactHandler.RemoveContact)
		}

		requestsGroup := apiV1.Group("/requests", authMW.VerifyToken())
		{
			requestsGroup.POST("", requestHandler.SendRequest)
			requestsGroup.GET("/sent", requestHandler.ListSentRequests)
			requestsGroup.GET("/received", requestHandler.ListReceivedRequests)
			requestsGroup.GET("/stream", streamHandler.StreamIncomingRequests)
			requestsGroup.POST("/:requestId/respond", requestHandler.RespondToRequest)
			requestsGroup.DELETE("/:requestId", requestHandler.CancelRequest)
		}

		alertsGroup := apiV1.Group("/alerts", authMW.VerifyToken())
		{
			alertsGroup.POST("", alertHandler.SendAlert)
			alertsGroup.GET("", alertHandler.ListReceivedAlerts)
			alertsGroup.POST("/arm", alertHandler.ArmAlert)
			alertsGroup.GET("/arm", alertHandler.GetArmedStatus)
			alertsGroup.DELETE("/arm", alertHandler.CancelArmedAlert)
			alertsGroup.GET("/:alertId", alertHandler.GetAlert)
			alertsGroup.DELETE("/:alertId", alertHandler.DeleteAlert)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Lifeline backend is healthy."})
	})

	logger.Info("API routes configured under /api/v1 and /health")
}
