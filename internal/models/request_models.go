package models

// InitializeProfileRequest is the request body for creating the backend
// profile after a client-side Firebase sign-up.
type InitializeProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// UpdateProfileRequest is the request body for editing profile fields.
// Pointers distinguish "not provided" from an explicit empty value.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// RegisterDeviceTokenRequest is the request body for persisting the device's
// current FCM registration token.
type RegisterDeviceTokenRequest struct {
	DeviceToken string `json:"deviceToken" binding:"required"`
}

// AddContactRequest is the request body for adding an emergency contact.
type AddContactRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// SendConnectionRequest is the request body for sending a connection request
// to another user, looked up by display name.
type SendConnectionRequest struct {
	RecipientName string `json:"recipientName" binding:"required"`
}

// RespondToRequestRequest is the request body for accepting or declining a
// received connection request.
type RespondToRequestRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept decline"`
}

// SendAlertRequest is the request body for dispatching an alert immediately.
// Location is optional; a missing snapshot falls back to the last-known fixed
// location. Audio, when present, is the base64-encoded recording produced by
// the device, uploaded to object storage before the alert document is created.
type SendAlertRequest struct {
	ReceiverID       string    `json:"receiverId" binding:"required"`
	Message          string    `json:"message,omitempty"`
	Location         *Location `json:"location,omitempty"`
	AudioBase64      string    `json:"audioBase64,omitempty"`
	AudioContentType string    `json:"audioContentType,omitempty"`
}

// ArmAlertRequest is the request body for starting the arming countdown.
// The payload is held server-side and dispatched unchanged when the countdown
// elapses, unless cancelled first.
type ArmAlertRequest struct {
	ReceiverID       string    `json:"receiverId" binding:"required"`
	Message          string    `json:"message,omitempty"`
	Location         *Location `json:"location,omitempty"`
	AudioBase64      string    `json:"audioBase64,omitempty"`
	AudioContentType string    `json:"audioContentType,omitempty"`
	CountdownSeconds int       `json:"countdownSeconds,omitempty"` // 0 means the configured default
}
