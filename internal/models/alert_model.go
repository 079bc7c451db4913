package models

import "time"

// AlertStatus is the lifecycle state of a dispatched alert.
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
)

// Location is a point snapshot captured when an alert is dispatched.
type Location struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

// DefaultLocation is the last-known fixed fallback used when no location
// snapshot is available at dispatch time.
var DefaultLocation = Location{Latitude: 37.78825, Longitude: -122.4324}

// Alert is an emergency notification dispatched from a sender to an accepted
// counterpart. Sender and receiver names are denormalized at creation time so
// the alert can be rendered without further lookups.
type Alert struct {
	ID             string      `json:"id" firestore:"-"` // Document ID, auto-generated
	SenderID       string      `json:"senderId" firestore:"senderId"`
	SenderName     string      `json:"senderName" firestore:"senderName"`
	ReceiverID     string      `json:"receiverId" firestore:"receiverId"`
	ReceiverName   string      `json:"receiverName" firestore:"receiverName"`
	SenderLocation Location    `json:"senderLocation" firestore:"senderLocation"`
	Message        string      `json:"message,omitempty" firestore:"message,omitempty"`
	AudioURL       string      `json:"audioUrl,omitempty" firestore:"audioUrl,omitempty"`
	Status         AlertStatus `json:"status" firestore:"status"`
	Timestamp      time.Time   `json:"timestamp" firestore:"timestamp,serverTimestamp"`
}
