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

const usersCollection = "users"

// ErrNotFound is a common error for when a document is not found in Firestore.
var ErrNotFound = errors.New("document not found")

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// Create adds a new user document to Firestore.
// The user.ID (Firebase Auth UID) is used as the Firestore document ID.
// CreatedAt and UpdatedAt are populated server-side via the serverTimestamp tag.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, err)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document from Firestore by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID // Ensure ID is populated from the document reference ID

	return &user, nil
}

// FindByName retrieves the first user whose display name matches.
// Display names are not unique in the store; callers get the first match in
// document order, mirroring the lookup the client performs.
func (r *firestoreUserRepository) FindByName(ctx context.Context, name string) (*models.User, error) {
	if name == "" {
		return nil, errors.New("name cannot be empty for FindByName operation")
	}

	iter := r.client.Collection(usersCollection).Where("name", "==", name).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user with name '%s' not found: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by name '%s': %w", name, err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for name '%s': %w", name, err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

// Update modifies an existing user document in Firestore.
// It uses Set with MergeAll so partial User models only touch the fields they
// carry. UpdatedAt is refreshed server-side via the serverTimestamp tag.
func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// UpdateDeviceToken overwrites the user's FCM registration token.
func (r *firestoreUserRepository) UpdateDeviceToken(ctx context.Context, userID, token string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for UpdateDeviceToken operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "deviceToken", Value: token},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update device token for user '%s': %w", userID, err)
	}
	return nil
}

// AddEmergencyContact appends a contact to the user's emergencyContacts array.
// ArrayUnion makes the write idempotent for an identical value; set semantics
// by phone are enforced in the service layer.
func (r *firestoreUserRepository) AddEmergencyContact(ctx context.Context, userID string, contact models.EmergencyContact) error {
	if userID == "" {
		return errors.New("userID cannot be empty for AddEmergencyContact operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "emergencyContacts", Value: firestore.ArrayUnion(contact)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to add emergency contact for user '%s': %w", userID, err)
	}
	return nil
}

// RemoveEmergencyContact removes a contact value from the user's
// emergencyContacts array. ArrayRemove matches the whole value, so the caller
// must pass the stored name/phone pair, not just the phone.
func (r *firestoreUserRepository) RemoveEmergencyContact(ctx context.Context, userID string, contact models.EmergencyContact) error {
	if userID == "" {
		return errors.New("userID cannot be empty for RemoveEmergencyContact operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "emergencyContacts", Value: firestore.ArrayRemove(contact)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to remove emergency contact for user '%s': %w", userID, err)
	}
	return nil
}
