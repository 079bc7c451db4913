package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lifeline-backend-go/internal/db"
	"lifeline-backend-go/internal/models"
	"lifeline-backend-go/pkg/cache"
)

// Subscription is a live stream of the pending requests addressed to one
// receiver. Updates carries the full current set on every change; Unsubscribe
// stops the stream and closes Updates.
type Subscription struct {
	Updates <-chan []*models.Request
	cancel  context.CancelFunc
}

// Unsubscribe stops the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

// notificationService implements the NotificationService interface.
type notificationService struct {
	userRepo db.UserRepository
	push     db.PushSender
	watcher  db.RequestWatcher
	cache    cache.Cache // optional, may be nil
	logger   *zap.Logger
}

// NewNotificationService creates a new NotificationService instance. The
// cache may be nil, in which case every send reads the user document.
func NewNotificationService(
	ur db.UserRepository,
	push db.PushSender,
	watcher db.RequestWatcher,
	c cache.Cache,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		userRepo: ur,
		push:     push,
		watcher:  watcher,
		cache:    c,
		logger:   logger,
	}
}

// NotifyUser sends a push notification to the user's registered device. A
// user without a token is skipped silently; delivery failures are logged and
// swallowed because a stale token must never fail the operation that
// triggered the notification.
func (s *notificationService) NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error {
	if s.push == nil || s.userRepo == nil {
		return errors.New("notificationService: component not initialized")
	}

	token, err := s.deviceToken(ctx, userID)
	if err != nil {
		return err
	}
	if token == "" {
		s.logger.Debug("User has no device token, skipping notification", zap.String("userID", userID))
		return nil
	}

	if err := s.push.Send(ctx, token, title, body, data); err != nil {
		s.logger.Warn("Push delivery failed",
			zap.String("userID", userID),
			zap.String("title", title),
			zap.Error(err))
	}
	return nil
}

// SubscribeToIncoming streams updates of the pending requests addressed to
// the receiver until Unsubscribe is called or ctx ends.
func (s *notificationService) SubscribeToIncoming(ctx context.Context, receiverID string) (*Subscription, error) {
	if s.watcher == nil {
		return nil, errors.New("notificationService: component not initialized")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	updates, err := s.watcher.WatchReceived(watchCtx, receiverID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch requests for '%s': %w", receiverID, err)
	}
	return &Subscription{Updates: updates, cancel: cancel}, nil
}

// deviceToken resolves the user's current token, consulting the cache first.
func (s *notificationService) deviceToken(ctx context.Context, userID string) (string, error) {
	if s.cache != nil {
		token, err := s.cache.Get(ctx, cache.DeviceTokenKey(userID))
		if err != nil {
			s.logger.Warn("Device token cache lookup failed", zap.String("userID", userID), zap.Error(err))
		} else if token != "" {
			return token, nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return "", fmt.Errorf("failed to get user '%s': %w", userID, err)
	}

	if s.cache != nil && user.DeviceToken != "" {
		if err := s.cache.Set(ctx, cache.DeviceTokenKey(userID), user.DeviceToken, cache.DeviceTokenTTL); err != nil {
			s.logger.Warn("Failed to cache device token", zap.String("userID", userID), zap.Error(err))
		}
	}
	return user.DeviceToken, nil
}
