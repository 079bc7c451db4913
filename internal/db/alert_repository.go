package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lifeline-backend-go/internal/models"
)

const alertsCollection = "alerts"

// firestoreAlertRepository implements the AlertRepository interface using Firestore.
type firestoreAlertRepository struct {
	client *firestore.Client
}

// NewFirestoreAlertRepository creates a new instance of firestoreAlertRepository.
func NewFirestoreAlertRepository(client *firestore.Client) AlertRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for AlertRepository.")
	}
	return &firestoreAlertRepository{client: client}
}

// Create adds a new alert document to Firestore with an auto-generated ID.
// The Timestamp field is assigned server-side via the serverTimestamp tag.
func (r *firestoreAlertRepository) Create(ctx context.Context, alert *models.Alert) (string, error) {
	docRef := r.client.Collection(alertsCollection).NewDoc()
	alert.ID = docRef.ID

	_, err := docRef.Create(ctx, alert)
	if err != nil {
		return "", fmt.Errorf("failed to create alert: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves an alert document from Firestore by its ID.
func (r *firestoreAlertRepository) GetByID(ctx context.Context, alertID string) (*models.Alert, error) {
	if alertID == "" {
		return nil, errors.New("alertID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(alertsCollection).Doc(alertID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("alert with ID '%s' not found: %w", alertID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get alert with ID '%s': %w", alertID, err)
	}

	var alert models.Alert
	if err := docSnap.DataTo(&alert); err != nil {
		return nil, fmt.Errorf("failed to decode alert data for ID '%s': %w", alertID, err)
	}
	alert.ID = docSnap.Ref.ID

	return &alert, nil
}

// Delete removes an alert document from Firestore.
func (r *firestoreAlertRepository) Delete(ctx context.Context, alertID string) error {
	if alertID == "" {
		return errors.New("alertID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(alertsCollection).Doc(alertID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("alert with ID '%s' not found for deletion: %w", alertID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete alert with ID '%s': %w", alertID, err)
	}
	return nil
}

// ListByReceiver retrieves the alerts addressed to receiverID, newest first.
func (r *firestoreAlertRepository) ListByReceiver(ctx context.Context, receiverID string) ([]*models.Alert, error) {
	if receiverID == "" {
		return nil, errors.New("receiverID cannot be empty for ListByReceiver operation")
	}

	iter := r.client.Collection(alertsCollection).
		Where("receiverId", "==", receiverID).
		OrderBy("timestamp", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var alerts []*models.Alert
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate alerts for receiver '%s': %w", receiverID, err)
		}

		var alert models.Alert
		if err := doc.DataTo(&alert); err != nil {
			log.Printf("Error decoding alert data (ID: %s) for receiver '%s': %v. Skipping.", doc.Ref.ID, receiverID, err)
			continue
		}
		alert.ID = doc.Ref.ID
		alerts = append(alerts, &alert)
	}

	return alerts, nil
}
