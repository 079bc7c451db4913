package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lifeline-backend-go/internal/db"
	"lifeline-backend-go/internal/models"
	"lifeline-backend-go/pkg/messagequeue"
)

// Custom errors for the RequestService
var (
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrRequestNotFound     = errors.New("connection request not found")
	ErrCannotRequestSelf   = errors.New("cannot send a connection request to oneself")
	ErrNotRequestReceiver  = errors.New("user is not the receiver of this request")
	ErrNotRequestSender    = errors.New("user is not the sender of this request")
	ErrInvalidStatusFilter = errors.New("invalid request status filter")
)

// requestEvent is the wire shape published to the event queue on request
// lifecycle changes.
type requestEvent struct {
	Event      string               `json:"event"`
	RequestID  string               `json:"requestId"`
	SenderID   string               `json:"senderId"`
	ReceiverID string               `json:"receiverId"`
	Status     models.RequestStatus `json:"status"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// requestService implements the RequestService interface.
type requestService struct {
	requestRepo db.RequestRepository
	userRepo    db.UserRepository
	notifier    NotificationService
	publisher   messagequeue.Publisher // optional, may be nil
	queueName   string
	logger      *zap.Logger
}

// NewRequestService creates a new RequestService instance. The publisher may
// be nil, in which case lifecycle events are not emitted.
func NewRequestService(
	rr db.RequestRepository,
	ur db.UserRepository,
	notifier NotificationService,
	publisher messagequeue.Publisher,
	queueName string,
	logger *zap.Logger,
) RequestService {
	return &requestService{
		requestRepo: rr,
		userRepo:    ur,
		notifier:    notifier,
		publisher:   publisher,
		queueName:   queueName,
		logger:      logger,
	}
}

// SendRequest creates a pending connection request addressed to the user with
// the given display name and notifies them. Display names are not unique; the
// first match is used.
func (s *requestService) SendRequest(ctx context.Context, senderID, recipientName string) (*models.Request, error) {
	if s.requestRepo == nil || s.userRepo == nil {
		return nil, errors.New("requestService: component not initialized")
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: sender with ID '%s'", ErrUserNotFound, senderID)
		}
		return nil, fmt.Errorf("failed to get sender '%s': %w", senderID, err)
	}

	recipient, err := s.userRepo.FindByName(ctx, recipientName)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: no user named '%s'", ErrRecipientNotFound, recipientName)
		}
		return nil, fmt.Errorf("failed to look up recipient '%s': %w", recipientName, err)
	}
	if recipient.ID == senderID {
		return nil, ErrCannotRequestSelf
	}

	request := &models.Request{
		SenderID:   senderID,
		ReceiverID: recipient.ID,
		Status:     models.RequestStatusPending,
	}
	requestID, err := s.requestRepo.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection request: %w", err)
	}
	request.ID = requestID

	if s.notifier != nil {
		notifyErr := s.notifier.NotifyUser(ctx, recipient.ID,
			"Emergency Request",
			fmt.Sprintf("%s has sent you an emergency request.", sender.Name),
			map[string]string{
				"click_action": "FLUTTER_NOTIFICATION_CLICK",
				"screen":       "requests",
			})
		if notifyErr != nil {
			// The request is already stored; notification is best-effort.
			s.logger.Warn("Failed to notify request recipient",
				zap.String("requestID", requestID),
				zap.String("receiverID", recipient.ID),
				zap.Error(notifyErr))
		}
	}

	s.publishEvent("request.created", request)
	return request, nil
}

// CancelRequest deletes a pending request sent by the given user. Cancelling
// a request that no longer exists or already reached a terminal state is a
// no-op: the outcome the caller wanted either holds or was overtaken by the
// receiver's decision.
func (s *requestService) CancelRequest(ctx context.Context, senderID, requestID string) error {
	if s.requestRepo == nil {
		return errors.New("requestService: component not initialized")
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get request '%s': %w", requestID, err)
	}
	if request.SenderID != senderID {
		return fmt.Errorf("%w: request '%s'", ErrNotRequestSender, requestID)
	}
	if request.Status.IsTerminal() {
		return nil
	}

	if err := s.requestRepo.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("failed to delete request '%s': %w", requestID, err)
	}
	return nil
}

// RespondToRequest records the receiver's decision on a pending request and
// notifies the sender. Responding to a request that is missing or already
// decided is a no-op.
func (s *requestService) RespondToRequest(ctx context.Context, receiverID, requestID string, accept bool) error {
	if s.requestRepo == nil || s.userRepo == nil {
		return errors.New("requestService: component not initialized")
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get request '%s': %w", requestID, err)
	}
	if request.ReceiverID != receiverID {
		return fmt.Errorf("%w: request '%s'", ErrNotRequestReceiver, requestID)
	}
	if request.Status != models.RequestStatusPending {
		return nil
	}

	status := models.RequestStatusDeclined
	if accept {
		status = models.RequestStatusAccepted
	}
	if err := s.requestRepo.UpdateStatus(ctx, requestID, status); err != nil {
		return fmt.Errorf("failed to update request '%s' to %s: %w", requestID, status, err)
	}

	if s.notifier != nil {
		receiver, lookupErr := s.userRepo.GetByID(ctx, receiverID)
		receiverName := "Your contact"
		if lookupErr == nil {
			receiverName = receiver.Name
		}
		title := "Request Declined"
		verb := "declined"
		if accept {
			title = "Request Accepted"
			verb = "accepted"
		}
		notifyErr := s.notifier.NotifyUser(ctx, request.SenderID,
			title,
			fmt.Sprintf("%s has %s your emergency request.", receiverName, verb),
			map[string]string{
				"click_action": "FLUTTER_NOTIFICATION_CLICK",
				"screen":       "requests",
			})
		if notifyErr != nil {
			s.logger.Warn("Failed to notify request sender",
				zap.String("requestID", requestID),
				zap.String("senderID", request.SenderID),
				zap.Error(notifyErr))
		}
	}

	request.Status = status
	s.publishEvent("request.responded", request)
	return nil
}

// publishEvent emits a lifecycle event for downstream consumers. Failures are
// logged and swallowed.
func (s *requestService) publishEvent(event string, request *models.Request) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(requestEvent{
		Event:      event,
		RequestID:  request.ID,
		SenderID:   request.SenderID,
		ReceiverID: request.ReceiverID,
		Status:     request.Status,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to marshal request event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(s.queueName, body); err != nil {
		s.logger.Warn("Failed to publish request event",
			zap.String("event", event),
			zap.String("requestID", request.ID),
			zap.Error(err))
	}
}

// ListSent returns the requests sent by the user, decorated with the
// receiver's display name. An empty status or "all" returns all of them.
func (s *requestService) ListSent(ctx context.Context, senderID string, status models.RequestStatus) ([]*models.RequestView, error) {
	if s.requestRepo == nil || s.userRepo == nil {
		return nil, errors.New("requestService: component not initialized")
	}
	status = normalizeStatusFilter(status)
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatusFilter, status)
	}

	requests, err := s.requestRepo.ListBySender(ctx, senderID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests sent by '%s': %w", senderID, err)
	}
	return s.decorate(ctx, requests, func(r *models.Request) string { return r.ReceiverID })
}

// ListReceived returns the requests addressed to the user, decorated with the
// sender's display name. An empty status or "all" returns all of them.
func (s *requestService) ListReceived(ctx context.Context, receiverID string, status models.RequestStatus) ([]*models.RequestView, error) {
	if s.requestRepo == nil || s.userRepo == nil {
		return nil, errors.New("requestService: component not initialized")
	}
	status = normalizeStatusFilter(status)
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatusFilter, status)
	}

	requests, err := s.requestRepo.ListByReceiver(ctx, receiverID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests received by '%s': %w", receiverID, err)
	}
	return s.decorate(ctx, requests, func(r *models.Request) string { return r.SenderID })
}

// normalizeStatusFilter maps the "all" filter value to the empty filter,
// which the repositories treat as no status constraint.
func normalizeStatusFilter(status models.RequestStatus) models.RequestStatus {
	if status == models.RequestStatusAll {
		return ""
	}
	return status
}

// decorate resolves the counterpart's display name for each request. Names are
// looked up once per distinct user; a counterpart whose profile has since been
// deleted shows up with an empty name rather than failing the listing.
func (s *requestService) decorate(ctx context.Context, requests []*models.Request, counterpart func(*models.Request) string) ([]*models.RequestView, error) {
	names := make(map[string]string)
	views := make([]*models.RequestView, 0, len(requests))
	for _, r := range requests {
		id := counterpart(r)
		name, ok := names[id]
		if !ok {
			user, err := s.userRepo.GetByID(ctx, id)
			if err != nil {
				if !errors.Is(err, db.ErrNotFound) {
					return nil, fmt.Errorf("failed to resolve user '%s': %w", id, err)
				}
			} else {
				name = user.Name
			}
			names[id] = name
		}
		views = append(views, &models.RequestView{
			ID:              r.ID,
			CounterpartID:   id,
			CounterpartName: name,
			Status:          r.Status,
			Timestamp:       r.Timestamp,
		})
	}
	return views, nil
}
