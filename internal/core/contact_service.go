package core

import (
	"context"
	"errors"
	"fmt"

	"lifeline-backend-go/internal/db"
	"lifeline-backend-go/internal/models"
)

// Custom errors for the ContactService
var (
	ErrContactNotFound      = errors.New("emergency contact not found")
	ErrContactAlreadyExists = errors.New("emergency contact with this phone number already exists")
)

// contactService implements the ContactService interface.
type contactService struct {
	userRepo db.UserRepository
}

// NewContactService creates a new ContactService instance.
func NewContactService(userRepo db.UserRepository) ContactService {
	return &contactService{userRepo: userRepo}
}

// AddContact appends an emergency contact to the user's list. Contacts are
// deduplicated by phone number.
func (s *contactService) AddContact(ctx context.Context, userID string, req models.AddContactRequest) error {
	if s.userRepo == nil {
		return errors.New("UserRepository not initialized in ContactService")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to get user '%s': %w", userID, err)
	}

	for _, c := range user.EmergencyContacts {
		if c.Phone == req.Phone {
			return fmt.Errorf("%w: %s", ErrContactAlreadyExists, req.Phone)
		}
	}

	contact := models.EmergencyContact{Name: req.Name, Phone: req.Phone}
	if err := s.userRepo.AddEmergencyContact(ctx, userID, contact); err != nil {
		return fmt.Errorf("failed to add emergency contact for user '%s': %w", userID, err)
	}
	return nil
}

// RemoveContact deletes the contact with the given phone number from the
// user's list. Removal resolves the stored contact value first because array
// removal matches whole elements.
func (s *contactService) RemoveContact(ctx context.Context, userID, phone string) error {
	if s.userRepo == nil {
		return errors.New("UserRepository not initialized in ContactService")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to get user '%s': %w", userID, err)
	}

	for _, c := range user.EmergencyContacts {
		if c.Phone == phone {
			if err := s.userRepo.RemoveEmergencyContact(ctx, userID, c); err != nil {
				return fmt.Errorf("failed to remove emergency contact for user '%s': %w", userID, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrContactNotFound, phone)
}

// ListContacts returns the user's emergency contacts.
func (s *contactService) ListContacts(ctx context.Context, userID string) ([]models.EmergencyContact, error) {
	if s.userRepo == nil {
		return nil, errors.New("UserRepository not initialized in ContactService")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}

	if user.EmergencyContacts == nil {
		return []models.EmergencyContact{}, nil
	}
	return user.EmergencyContacts, nil
}
