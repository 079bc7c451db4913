package models

import "time"

// RequestStatus is the lifecycle state of a connection request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"

	// RequestStatusAll is a filter-only value accepted by the listing
	// endpoints. It is never stored on a request, so Valid rejects it.
	RequestStatusAll RequestStatus = "all"
)

// IsTerminal reports whether the status is a final state. A request never
// transitions out of accepted or declined; a new connection needs a fresh
// request.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusDeclined
}

// Valid reports whether the status is one of the known lifecycle states.
// Documents read back from the store are validated against this before use.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusDeclined:
		return true
	}
	return false
}

// Request is a proposed emergency-contact connection between two users.
// The sender creates it in the pending state; the receiver moves it to
// accepted or declined; the sender may delete it while still pending.
type Request struct {
	ID         string        `json:"id" firestore:"-"` // Document ID, auto-generated
	SenderID   string        `json:"senderId" firestore:"senderId"`
	ReceiverID string        `json:"receiverId" firestore:"receiverId"`
	Status     RequestStatus `json:"status" firestore:"status"`
	Timestamp  time.Time     `json:"timestamp" firestore:"timestamp,serverTimestamp"`
}

// RequestView is a request decorated with the counterpart's display name for
// presentation. For a sent request the counterpart is the receiver; for a
// received request it is the sender.
type RequestView struct {
	ID              string        `json:"id"`
	CounterpartID   string        `json:"counterpartId"`
	CounterpartName string        `json:"counterpartName"`
	Status          RequestStatus `json:"status"`
	Timestamp       time.Time     `json:"timestamp"`
}
