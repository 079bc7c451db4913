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

// ErrUserNotFound is returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
	cache    cache.Cache // optional, may be nil
	logger   *zap.Logger
}

// NewUserService creates a new UserService instance. The cache may be nil, in
// which case device-token caching is skipped.
func NewUserService(userRepo db.UserRepository, c cache.Cache, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		cache:    c,
		logger:   logger,
	}
}

// GetOrCreate retrieves a user by ID. If the user doesn't exist, it creates a
// new one from the supplied profile fields. Returns the user, a boolean
// indicating whether it was created, and an error if any.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, name, phone string) (*models.User, bool, error) {
	if s.userRepo == nil {
		return nil, false, errors.New("UserRepository not initialized in UserService")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			newUser := &models.User{
				ID:                userID, // Firebase Auth UID is the document ID
				Email:             email,
				Name:              name,
				Phone:             phone,
				EmergencyContacts: []models.EmergencyContact{},
			}
			if createErr := s.userRepo.Create(ctx, newUser); createErr != nil {
				return nil, false, fmt.Errorf("failed to create user (id: %s) after not found: %w", userID, createErr)
			}
			return newUser, true, nil
		}
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	if user == nil {
		return nil, false, fmt.Errorf("repository returned (nil, nil) for user ID '%s'", userID)
	}
	return user, false, nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if s.userRepo == nil {
		return nil, errors.New("UserRepository not initialized in UserService")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of the request to the user's profile.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if s.userRepo == nil {
		return nil, errors.New("UserRepository not initialized in UserService")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user '%s': %w", userID, err)
	}
	return user, nil
}

// RegisterDeviceToken stores the user's push notification token, replacing any
// previous one. The cached copy, if present, is refreshed as well.
func (s *userService) RegisterDeviceToken(ctx context.Context, userID, token string) error {
	if s.userRepo == nil {
		return errors.New("UserRepository not initialized in UserService")
	}

	if err := s.userRepo.UpdateDeviceToken(ctx, userID, token); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to update device token for user '%s': %w", userID, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.DeviceTokenKey(userID), token, cache.DeviceTokenTTL); err != nil {
			// Cache is best-effort; the repository holds the source of truth.
			s.logger.Warn("Failed to cache device token", zap.String("userID", userID), zap.Error(err))
		}
	}
	return nil
}
