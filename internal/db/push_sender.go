package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"
)

// PushSender delivers a push notification to a single device token.
// The notifier in internal/core treats delivery as best-effort; implementations
// should return the raw error and leave swallowing to the caller.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// fcmPushSender implements PushSender using Firebase Cloud Messaging.
type fcmPushSender struct {
	client *messaging.Client
}

// NewFCMPushSender creates a PushSender backed by the FCM client.
func NewFCMPushSender(client *messaging.Client) PushSender {
	if client == nil {
		log.Fatal("Messaging client is not initialized for PushSender.")
	}
	return &fcmPushSender{client: client}
}

// Send delivers a notification message to the given registration token.
func (s *fcmPushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return errors.New("token cannot be empty for Send operation")
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}
