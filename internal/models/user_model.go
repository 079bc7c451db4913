package models

import "time"

// User represents a user profile in the system.
// The document ID is the Firebase Auth UID; profile fields are written by the
// client after sign-up and kept current by profile edits.
type User struct {
	ID                string             `json:"id" firestore:"-"` // Firebase Auth UID, used as the document ID
	Name              string             `json:"name" firestore:"name"`
	Phone             string             `json:"phone,omitempty" firestore:"phone,omitempty"`
	Email             string             `json:"email" firestore:"email"`
	DeviceToken       string             `json:"deviceToken,omitempty" firestore:"deviceToken,omitempty"` // FCM registration token of the user's current device
	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty" firestore:"emergencyContacts,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt         time.Time          `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// EmergencyContact is a trusted contact embedded in a user's profile.
// Contacts have no identity of their own; membership in the list is a set
// keyed by phone number.
type EmergencyContact struct {
	Name  string `json:"name" firestore:"name"`
	Phone string `json:"phone" firestore:"phone"`
}
