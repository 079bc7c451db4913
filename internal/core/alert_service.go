package core

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifeline-backend-go/internal/db"
	"lifeline-backend-go/internal/models"
	"lifeline-backend-go/pkg/messagequeue"
)

// Custom errors for the AlertService
var (
	ErrAlertNotFound       = errors.New("alert not found")
	ErrNoAcceptedRequest   = errors.New("no accepted connection request with this receiver")
	ErrNotAlertReceiver    = errors.New("user is not the receiver of this alert")
	ErrNotAlertParticipant = errors.New("user is neither the sender nor the receiver of this alert")
	ErrInvalidAudio        = errors.New("audio payload is not valid base64")
	ErrUploadFailed        = errors.New("failed to upload audio recording")
)

// alertEvent is the wire shape published to the event queue on alert
// lifecycle changes.
type alertEvent struct {
	Event      string    `json:"event"`
	AlertID    string    `json:"alertId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// alertService implements the AlertService interface.
type alertService struct {
	alertRepo   db.AlertRepository
	requestRepo db.RequestRepository
	userRepo    db.UserRepository
	audioStore  db.AudioStore
	notifier    NotificationService
	publisher   messagequeue.Publisher // optional, may be nil
	queueName   string
	logger      *zap.Logger
}

// NewAlertService creates a new AlertService instance. The publisher may be
// nil, in which case lifecycle events are not emitted.
func NewAlertService(
	ar db.AlertRepository,
	rr db.RequestRepository,
	ur db.UserRepository,
	audioStore db.AudioStore,
	notifier NotificationService,
	publisher messagequeue.Publisher,
	queueName string,
	logger *zap.Logger,
) AlertService {
	return &alertService{
		alertRepo:   ar,
		requestRepo: rr,
		userRepo:    ur,
		audioStore:  audioStore,
		notifier:    notifier,
		publisher:   publisher,
		queueName:   queueName,
		logger:      logger,
	}
}

// SendAlert dispatches an alert to an accepted counterpart. The sender must
// hold an accepted connection request toward the receiver. Audio, when
// present, is uploaded first; an upload failure aborts the dispatch so no
// alert document references a missing recording.
func (s *alertService) SendAlert(ctx context.Context, senderID string, req models.SendAlertRequest) (*models.Alert, error) {
	if s.alertRepo == nil || s.requestRepo == nil || s.userRepo == nil {
		return nil, errors.New("alertService: component not initialized")
	}

	if err := s.CheckConnection(ctx, senderID, req.ReceiverID); err != nil {
		return nil, err
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: sender with ID '%s'", ErrUserNotFound, senderID)
		}
		return nil, fmt.Errorf("failed to get sender '%s': %w", senderID, err)
	}
	receiver, err := s.userRepo.GetByID(ctx, req.ReceiverID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: receiver with ID '%s'", ErrUserNotFound, req.ReceiverID)
		}
		return nil, fmt.Errorf("failed to get receiver '%s': %w", req.ReceiverID, err)
	}

	location := models.DefaultLocation
	if req.Location != nil {
		location = *req.Location
	}

	audioURL := ""
	if req.AudioBase64 != "" {
		audioURL, err = s.uploadAudio(ctx, senderID, req.AudioBase64, req.AudioContentType)
		if err != nil {
			return nil, err
		}
	}

	alert := &models.Alert{
		SenderID:       senderID,
		SenderName:     sender.Name,
		ReceiverID:     receiver.ID,
		ReceiverName:   receiver.Name,
		SenderLocation: location,
		Message:        req.Message,
		AudioURL:       audioURL,
		Status:         models.AlertStatusActive,
	}
	alertID, err := s.alertRepo.Create(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	alert.ID = alertID

	if s.notifier != nil {
		notifyErr := s.notifier.NotifyUser(ctx, receiver.ID,
			"Emergency Alert",
			fmt.Sprintf("%s needs your help!", sender.Name),
			map[string]string{
				"click_action": "FLUTTER_NOTIFICATION_CLICK",
				"screen":       "alerts",
				"alertId":      alertID,
			})
		if notifyErr != nil {
			s.logger.Warn("Failed to notify alert receiver",
				zap.String("alertID", alertID),
				zap.String("receiverID", receiver.ID),
				zap.Error(notifyErr))
		}
	}

	s.publishEvent("alert.created", alert)
	return alert, nil
}

// CheckConnection verifies the sender holds an accepted connection request
// toward the receiver.
func (s *alertService) CheckConnection(ctx context.Context, senderID, receiverID string) error {
	if s.requestRepo == nil {
		return errors.New("alertService: component not initialized")
	}
	if _, err := s.requestRepo.FindAcceptedBetween(ctx, senderID, receiverID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: sender '%s', receiver '%s'", ErrNoAcceptedRequest, senderID, receiverID)
		}
		return fmt.Errorf("failed to check connection between '%s' and '%s': %w", senderID, receiverID, err)
	}
	return nil
}

// ViewAlert returns an alert to its sender or receiver.
func (s *alertService) ViewAlert(ctx context.Context, userID, alertID string) (*models.Alert, error) {
	if s.alertRepo == nil {
		return nil, errors.New("alertService: component not initialized")
	}

	alert, err := s.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: alert '%s'", ErrAlertNotFound, alertID)
		}
		return nil, fmt.Errorf("failed to get alert '%s': %w", alertID, err)
	}
	if alert.SenderID != userID && alert.ReceiverID != userID {
		return nil, fmt.Errorf("%w: alert '%s'", ErrNotAlertParticipant, alertID)
	}
	return alert, nil
}

// DeleteAlert acknowledges and removes an alert. Only the receiver may delete
// an alert addressed to them.
func (s *alertService) DeleteAlert(ctx context.Context, receiverID, alertID string) error {
	if s.alertRepo == nil {
		return errors.New("alertService: component not initialized")
	}

	alert, err := s.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: alert '%s'", ErrAlertNotFound, alertID)
		}
		return fmt.Errorf("failed to get alert '%s': %w", alertID, err)
	}
	if alert.ReceiverID != receiverID {
		return fmt.Errorf("%w: alert '%s'", ErrNotAlertReceiver, alertID)
	}

	if err := s.alertRepo.Delete(ctx, alertID); err != nil {
		return fmt.Errorf("failed to delete alert '%s': %w", alertID, err)
	}

	s.publishEvent("alert.deleted", alert)
	return nil
}

// ListReceivedAlerts returns the alerts addressed to the user, newest first.
func (s *alertService) ListReceivedAlerts(ctx context.Context, receiverID string) ([]*models.Alert, error) {
	if s.alertRepo == nil {
		return nil, errors.New("alertService: component not initialized")
	}

	alerts, err := s.alertRepo.ListByReceiver(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts for '%s': %w", receiverID, err)
	}
	return alerts, nil
}

// uploadAudio decodes and stores the recording, returning its public URL.
func (s *alertService) uploadAudio(ctx context.Context, senderID, audioBase64, contentType string) (string, error) {
	if s.audioStore == nil {
		return "", errors.New("alertService: audio store not initialized")
	}

	data, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	if contentType == "" {
		contentType = "audio/mp4"
	}

	objectName := fmt.Sprintf("alert-audio/%s/%s", senderID, uuid.New().String())
	url, err := s.audioStore.Upload(ctx, objectName, data, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return url, nil
}

// publishEvent emits a lifecycle event for downstream consumers. Failures are
// logged and swallowed.
func (s *alertService) publishEvent(event string, alert *models.Alert) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(alertEvent{
		Event:      event,
		AlertID:    alert.ID,
		SenderID:   alert.SenderID,
		ReceiverID: alert.ReceiverID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to marshal alert event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(s.queueName, body); err != nil {
		s.logger.Warn("Failed to publish alert event",
			zap.String("event", event),
			zap.String("alertID", alert.ID),
			zap.Error(err))
	}
}
