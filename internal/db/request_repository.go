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

const requestsCollection = "requests"

// firestoreRequestRepository implements RequestRepository and RequestWatcher
// using Firestore.
type firestoreRequestRepository struct {
	client *firestore.Client
}

// NewFirestoreRequestRepository creates a new instance of firestoreRequestRepository.
func NewFirestoreRequestRepository(client *firestore.Client) RequestRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for RequestRepository.")
	}
	return &firestoreRequestRepository{client: client}
}

// NewFirestoreRequestWatcher creates a RequestWatcher backed by Firestore
// snapshot listeners.
func NewFirestoreRequestWatcher(client *firestore.Client) RequestWatcher {
	if client == nil {
		log.Fatal("Firestore client is not initialized for RequestWatcher.")
	}
	return &firestoreRequestRepository{client: client}
}

// Create adds a new request document to Firestore with an auto-generated ID.
// The Timestamp field is assigned server-side via the serverTimestamp tag.
func (r *firestoreRequestRepository) Create(ctx context.Context, request *models.Request) (string, error) {
	docRef := r.client.Collection(requestsCollection).NewDoc()
	request.ID = docRef.ID // Set the ID in the model before saving

	_, err := docRef.Create(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a request document from Firestore by its ID.
func (r *firestoreRequestRepository) GetByID(ctx context.Context, requestID string) (*models.Request, error) {
	if requestID == "" {
		return nil, errors.New("requestID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(requestsCollection).Doc(requestID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("request with ID '%s' not found: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get request with ID '%s': %w", requestID, err)
	}

	request, err := decodeRequest(docSnap)
	if err != nil {
		return nil, err
	}
	return request, nil
}

// UpdateStatus sets the status field of a request document.
func (r *firestoreRequestRepository) UpdateStatus(ctx context.Context, requestID string, st models.RequestStatus) error {
	if requestID == "" {
		return errors.New("requestID cannot be empty for UpdateStatus operation")
	}
	_, err := r.client.Collection(requestsCollection).Doc(requestID).Update(ctx, []firestore.Update{
		{Path: "status", Value: st},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("request with ID '%s' not found: %w", requestID, ErrNotFound)
		}
		return fmt.Errorf("failed to update status of request '%s': %w", requestID, err)
	}
	return nil
}

// Delete removes a request document from Firestore.
func (r *firestoreRequestRepository) Delete(ctx context.Context, requestID string) error {
	if requestID == "" {
		return errors.New("requestID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(requestsCollection).Doc(requestID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("request with ID '%s' not found for deletion: %w", requestID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete request with ID '%s': %w", requestID, err)
	}
	return nil
}

// ListBySender retrieves the requests created by senderID, newest first,
// optionally narrowed to a single status.
func (r *firestoreRequestRepository) ListBySender(ctx context.Context, senderID string, st models.RequestStatus) ([]*models.Request, error) {
	if senderID == "" {
		return nil, errors.New("senderID cannot be empty for ListBySender operation")
	}
	return r.listRequests(ctx, "senderId", senderID, st)
}

// ListByReceiver retrieves the requests addressed to receiverID, newest first,
// optionally narrowed to a single status.
func (r *firestoreRequestRepository) ListByReceiver(ctx context.Context, receiverID string, st models.RequestStatus) ([]*models.Request, error) {
	if receiverID == "" {
		return nil, errors.New("receiverID cannot be empty for ListByReceiver operation")
	}
	return r.listRequests(ctx, "receiverId", receiverID, st)
}

func (r *firestoreRequestRepository) listRequests(ctx context.Context, field, value string, st models.RequestStatus) ([]*models.Request, error) {
	query := r.client.Collection(requestsCollection).
		Where(field, "==", value).
		OrderBy("timestamp", firestore.Desc)
	if st != "" {
		query = query.Where("status", "==", st)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var requests []*models.Request
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate requests (%s='%s'): %w", field, value, err)
		}

		request, err := decodeRequest(doc)
		if err != nil {
			// Log and skip documents with unexpected shapes rather
			// than failing the whole listing.
			log.Printf("Error decoding request data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		requests = append(requests, request)
	}

	return requests, nil
}

// FindAcceptedBetween returns an accepted request from senderID to receiverID,
// or ErrNotFound when no such request exists.
func (r *firestoreRequestRepository) FindAcceptedBetween(ctx context.Context, senderID, receiverID string) (*models.Request, error) {
	if senderID == "" || receiverID == "" {
		return nil, errors.New("senderID and receiverID cannot be empty for FindAcceptedBetween operation")
	}

	iter := r.client.Collection(requestsCollection).
		Where("senderId", "==", senderID).
		Where("receiverId", "==", receiverID).
		Where("status", "==", models.RequestStatusAccepted).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("no accepted request from '%s' to '%s': %w", senderID, receiverID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted request ('%s' -> '%s'): %w", senderID, receiverID, err)
	}

	return decodeRequest(doc)
}

// WatchReceived establishes a snapshot listener on the requests addressed to
// receiverID and sends the full newest-first result set on every change. The
// returned channel is closed when ctx is cancelled or the listen fails.
func (r *firestoreRequestRepository) WatchReceived(ctx context.Context, receiverID string) (<-chan []*models.Request, error) {
	if receiverID == "" {
		return nil, errors.New("receiverID cannot be empty for WatchReceived operation")
	}

	query := r.client.Collection(requestsCollection).
		Where("receiverId", "==", receiverID).
		OrderBy("timestamp", firestore.Desc)

	updates := make(chan []*models.Request, 1)

	go func() {
		defer close(updates)

		snapIter := query.Snapshots(ctx)
		defer snapIter.Stop()

		for {
			snap, err := snapIter.Next()
			if err != nil {
				// Context cancellation is the normal teardown
				// path; anything else is logged before the
				// channel closes.
				if ctx.Err() == nil {
					log.Printf("Request snapshot listener for receiver '%s' stopped: %v", receiverID, err)
				}
				return
			}

			var requests []*models.Request
			docIter := snap.Documents
			for {
				doc, err := docIter.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					log.Printf("Error iterating request snapshot for receiver '%s': %v", receiverID, err)
					break
				}
				request, err := decodeRequest(doc)
				if err != nil {
					log.Printf("Error decoding request data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
					continue
				}
				requests = append(requests, request)
			}

			select {
			case updates <- requests:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, nil
}

// decodeRequest converts a document snapshot into a validated Request.
// Documents with an unknown status value are rejected rather than trusted.
func decodeRequest(doc *firestore.DocumentSnapshot) (*models.Request, error) {
	var request models.Request
	if err := doc.DataTo(&request); err != nil {
		return nil, fmt.Errorf("failed to decode request data for ID '%s': %w", doc.Ref.ID, err)
	}
	request.ID = doc.Ref.ID
	if !request.Status.Valid() {
		return nil, fmt.Errorf("request '%s' has unknown status '%s'", doc.Ref.ID, request.Status)
	}
	return &request, nil
}
