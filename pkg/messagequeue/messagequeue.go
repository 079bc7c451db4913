package messagequeue

// Publisher defines the interface for publishing lifecycle events to a
// message queue. Publishing is a best-effort side channel for downstream
// consumers (dashboards, archival); failures never roll back the mutation
// that triggered the event.
type Publisher interface {
	Publish(queueName string, body []byte) error
	Close() error
}
