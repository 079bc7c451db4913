package core

import (
	"context"

	"lifeline-backend-go/internal/models"
)

// UserService defines the interface for user profile operations.
type UserService interface {
	// GetOrCreate retrieves a user by ID. If the user doesn't exist, it creates a new one
	// from the supplied profile fields.
	GetOrCreate(ctx context.Context, userID, email, name, phone string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	RegisterDeviceToken(ctx context.Context, userID, token string) error
}

// ContactService defines the interface for emergency contact operations.
type ContactService interface {
	AddContact(ctx context.Context, userID string, req models.AddContactRequest) error
	RemoveContact(ctx context.Context, userID, phone string) error
	ListContacts(ctx context.Context, userID string) ([]models.EmergencyContact, error)
}

// RequestService defines the interface for connection request operations.
type RequestService interface {
	SendRequest(ctx context.Context, senderID, recipientName string) (*models.Request, error)
	CancelRequest(ctx context.Context, senderID, requestID string) error
	RespondToRequest(ctx context.Context, receiverID, requestID string, accept bool) error
	ListSent(ctx context.Context, senderID string, status models.RequestStatus) ([]*models.RequestView, error)
	ListReceived(ctx context.Context, receiverID string, status models.RequestStatus) ([]*models.RequestView, error)
}

// AlertService defines the interface for emergency alert operations.
type AlertService interface {
	SendAlert(ctx context.Context, senderID string, req models.SendAlertRequest) (*models.Alert, error)
	// CheckConnection verifies the sender holds an accepted connection
	// request toward the receiver, without side effects.
	CheckConnection(ctx context.Context, senderID, receiverID string) error
	ViewAlert(ctx context.Context, userID, alertID string) (*models.Alert, error)
	DeleteAlert(ctx context.Context, receiverID, alertID string) error
	ListReceivedAlerts(ctx context.Context, receiverID string) ([]*models.Alert, error)
}

// ArmingService defines the interface for countdown-armed alert dispatch.
// Arming starts a countdown for the sender; if the countdown elapses without a
// cancellation the alert is dispatched, otherwise nothing is sent.
type ArmingService interface {
	Arm(ctx context.Context, senderID string, req models.ArmAlertRequest) error
	Cancel(senderID string) error
	IsArmed(senderID string) bool
}

// NotificationService defines the interface for push delivery and
// incoming-request subscriptions.
type NotificationService interface {
	// NotifyUser sends a push notification to the given user's registered
	// device. Delivery failures are logged and swallowed; only lookup errors
	// are returned.
	NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error
	// SubscribeToIncoming streams updates of the pending requests addressed to
	// the given receiver until the subscription is closed.
	SubscribeToIncoming(ctx context.Context, receiverID string) (*Subscription, error)
}
