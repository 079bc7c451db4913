package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifeline-backend-go/internal/models"
)

// Custom errors for the ArmingService
var (
	ErrAlreadyArming     = errors.New("an alert is already armed for this user")
	ErrNotArming         = errors.New("no alert is armed for this user")
	ErrInvalidCountdown  = errors.New("countdown must be positive")
	ErrArmingUnavailable = errors.New("arming service unavailable")
)

// armedAlert is a single pending dispatch held server-side during the
// countdown.
type armedAlert struct {
	timer  *time.Timer
	cancel chan struct{}
}

// armingService implements the ArmingService interface. At most one alert can
// be armed per sender at a time; the payload is held in memory and nothing is
// written or uploaded until the countdown elapses.
type armingService struct {
	alerts           AlertService
	defaultCountdown time.Duration
	logger           *zap.Logger

	mu    sync.Mutex
	armed map[string]*armedAlert // keyed by sender ID
}

// NewArmingService creates a new ArmingService instance.
func NewArmingService(alerts AlertService, defaultCountdown time.Duration, logger *zap.Logger) ArmingService {
	return &armingService{
		alerts:           alerts,
		defaultCountdown: defaultCountdown,
		logger:           logger,
		armed:            make(map[string]*armedAlert),
	}
}

// Arm starts the countdown for the sender. When it elapses the alert is
// dispatched exactly as if SendAlert had been called with the held payload;
// a cancellation before that leaves no trace. The accepted-connection check
// runs up front so the user learns about a doomed dispatch immediately, not
// after the countdown.
func (s *armingService) Arm(ctx context.Context, senderID string, req models.ArmAlertRequest) error {
	if s.alerts == nil {
		return ErrArmingUnavailable
	}

	countdown := s.defaultCountdown
	if req.CountdownSeconds > 0 {
		countdown = time.Duration(req.CountdownSeconds) * time.Second
	}
	if countdown <= 0 {
		return ErrInvalidCountdown
	}

	// Validate the dispatch preconditions now rather than when the timer
	// fires. The check is repeated at dispatch time; a connection severed
	// during the countdown fails the dispatch then.
	if err := s.alerts.CheckConnection(ctx, senderID, req.ReceiverID); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.armed[senderID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: sender '%s'", ErrAlreadyArming, senderID)
	}

	entry := &armedAlert{cancel: make(chan struct{})}
	entry.timer = time.AfterFunc(countdown, func() {
		s.dispatch(senderID, entry, req)
	})
	s.armed[senderID] = entry
	s.mu.Unlock()

	s.logger.Info("Alert armed",
		zap.String("senderID", senderID),
		zap.String("receiverID", req.ReceiverID),
		zap.Duration("countdown", countdown))
	return nil
}

// Cancel stops the sender's countdown. Nothing has been stored or uploaded at
// this point, so cancellation leaves no record of the armed alert.
func (s *armingService) Cancel(senderID string) error {
	s.mu.Lock()
	entry, ok := s.armed[senderID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: sender '%s'", ErrNotArming, senderID)
	}
	delete(s.armed, senderID)
	s.mu.Unlock()

	entry.timer.Stop()
	close(entry.cancel)

	s.logger.Info("Armed alert cancelled", zap.String("senderID", senderID))
	return nil
}

// IsArmed reports whether the sender currently has an armed alert.
func (s *armingService) IsArmed(senderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[senderID]
	return ok
}

// dispatch fires when the countdown elapses. The armed entry is removed
// before sending so a late Cancel reports ErrNotArming instead of silently
// racing the dispatch.
func (s *armingService) dispatch(senderID string, entry *armedAlert, req models.ArmAlertRequest) {
	s.mu.Lock()
	current, ok := s.armed[senderID]
	if !ok || current != entry {
		// Cancelled, or superseded after a cancel.
		s.mu.Unlock()
		return
	}
	delete(s.armed, senderID)
	s.mu.Unlock()

	select {
	case <-entry.cancel:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	alert, err := s.alerts.SendAlert(ctx, senderID, models.SendAlertRequest{
		ReceiverID:       req.ReceiverID,
		Message:          req.Message,
		Location:         req.Location,
		AudioBase64:      req.AudioBase64,
		AudioContentType: req.AudioContentType,
	})
	if err != nil {
		s.logger.Error("Armed alert dispatch failed",
			zap.String("senderID", senderID),
			zap.String("receiverID", req.ReceiverID),
			zap.Error(err))
		return
	}

	s.logger.Info("Armed alert dispatched",
		zap.String("senderID", senderID),
		zap.String("alertID", alert.ID))
}
