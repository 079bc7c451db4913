package db

import (
	"context"

	"lifeline-backend-go/internal/models"
)

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// FindByName looks a user up by display name. Display names are not
	// enforced unique; the first match wins.
	FindByName(ctx context.Context, name string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateDeviceToken(ctx context.Context, userID, token string) error
	AddEmergencyContact(ctx context.Context, userID string, contact models.EmergencyContact) error
	RemoveEmergencyContact(ctx context.Context, userID string, contact models.EmergencyContact) error
}

// RequestRepository defines the interface for connection-request storage
// operations.
type RequestRepository interface {
	Create(ctx context.Context, request *models.Request) (string, error) // Returns new request ID
	GetByID(ctx context.Context, requestID string) (*models.Request, error)
	UpdateStatus(ctx context.Context, requestID string, status models.RequestStatus) error
	Delete(ctx context.Context, requestID string) error
	// ListBySender / ListByReceiver return requests newest first. A
	// non-empty status narrows the result.
	ListBySender(ctx context.Context, senderID string, status models.RequestStatus) ([]*models.Request, error)
	ListByReceiver(ctx context.Context, receiverID string, status models.RequestStatus) ([]*models.Request, error)
	// FindAcceptedBetween returns an accepted request from sender to
	// receiver, or ErrNotFound when none exists.
	FindAcceptedBetween(ctx context.Context, senderID, receiverID string) (*models.Request, error)
}

// RequestWatcher delivers live updates of the requests addressed to a user.
type RequestWatcher interface {
	// WatchReceived sends the current newest-first set of requests
	// addressed to receiverID on every change of the underlying query. The
	// channel is closed when ctx is cancelled or the listen fails.
	WatchReceived(ctx context.Context, receiverID string) (<-chan []*models.Request, error)
}

// AlertRepository defines the interface for alert storage operations.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) (string, error) // Returns new alert ID
	GetByID(ctx context.Context, alertID string) (*models.Alert, error)
	Delete(ctx context.Context, alertID string) error
	ListByReceiver(ctx context.Context, receiverID string) ([]*models.Alert, error)
}
