package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"lifeline-backend-go/internal/db"
	"lifeline-backend-go/internal/models"
)

// In-memory repository and side-channel fakes shared by the service tests.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*models.User)}
}

func (r *memUserRepo) put(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *memUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByName(_ context.Context, name string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if r.users[id].Name == name {
			cp := *r.users[id]
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) UpdateDeviceToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	u.DeviceToken = token
	return nil
}

func (r *memUserRepo) AddEmergencyContact(_ context.Context, userID string, contact models.EmergencyContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	u.EmergencyContacts = append(u.EmergencyContacts, contact)
	return nil
}

func (r *memUserRepo) RemoveEmergencyContact(_ context.Context, userID string, contact models.EmergencyContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	kept := u.EmergencyContacts[:0]
	for _, c := range u.EmergencyContacts {
		if c != contact {
			kept = append(kept, c)
		}
	}
	u.EmergencyContacts = kept
	return nil
}

type memRequestRepo struct {
	mu       sync.Mutex
	seq      int
	requests map[string]*models.Request
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: make(map[string]*models.Request)}
}

func (r *memRequestRepo) Create(_ context.Context, request *models.Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := fmt.Sprintf("req-%d", r.seq)
	cp := *request
	cp.ID = id
	cp.Timestamp = time.Now().UTC()
	r.requests[id] = &cp
	return id, nil
}

func (r *memRequestRepo) GetByID(_ context.Context, requestID string) (*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *memRequestRepo) UpdateStatus(_ context.Context, requestID string, status models.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return db.ErrNotFound
	}
	req.Status = status
	return nil
}

func (r *memRequestRepo) Delete(_ context.Context, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[requestID]; !ok {
		return db.ErrNotFound
	}
	delete(r.requests, requestID)
	return nil
}

func (r *memRequestRepo) list(match func(*models.Request) bool) []*models.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Request
	for _, req := range r.requests {
		if match(req) {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (r *memRequestRepo) ListBySender(_ context.Context, senderID string, status models.RequestStatus) ([]*models.Request, error) {
	return r.list(func(req *models.Request) bool {
		return req.SenderID == senderID && (status == "" || req.Status == status)
	}), nil
}

func (r *memRequestRepo) ListByReceiver(_ context.Context, receiverID string, status models.RequestStatus) ([]*models.Request, error) {
	return r.list(func(req *models.Request) bool {
		return req.ReceiverID == receiverID && (status == "" || req.Status == status)
	}), nil
}

func (r *memRequestRepo) FindAcceptedBetween(_ context.Context, senderID, receiverID string) (*models.Request, error) {
	found := r.list(func(req *models.Request) bool {
		return req.SenderID == senderID && req.ReceiverID == receiverID && req.Status == models.RequestStatusAccepted
	})
	if len(found) == 0 {
		return nil, db.ErrNotFound
	}
	return found[0], nil
}

type memAlertRepo struct {
	mu     sync.Mutex
	seq    int
	alerts map[string]*models.Alert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[string]*models.Alert)}
}

func (r *memAlertRepo) Create(_ context.Context, alert *models.Alert) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := fmt.Sprintf("alert-%d", r.seq)
	cp := *alert
	cp.ID = id
	cp.Timestamp = time.Now().UTC()
	r.alerts[id] = &cp
	return id, nil
}

func (r *memAlertRepo) GetByID(_ context.Context, alertID string) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[alertID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAlertRepo) Delete(_ context.Context, alertID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alerts[alertID]; !ok {
		return db.ErrNotFound
	}
	delete(r.alerts, alertID)
	return nil
}

func (r *memAlertRepo) ListByReceiver(_ context.Context, receiverID string) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Alert
	for _, a := range r.alerts {
		if a.ReceiverID == receiverID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *memAlertRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

// sentPush records one delivered push notification.
type sentPush struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type fakePushSender struct {
	mu      sync.Mutex
	sent    []sentPush
	sendErr error
}

func (p *fakePushSender) Send(_ context.Context, token, title, body string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, sentPush{Token: token, Title: title, Body: body, Data: data})
	return nil
}

func (p *fakePushSender) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *fakePushSender) lastSent() (sentPush, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return sentPush{}, false
	}
	return p.sent[len(p.sent)-1], true
}

type fakeAudioStore struct {
	mu        sync.Mutex
	uploads   int
	uploadErr error
}

func (s *fakeAudioStore) Upload(_ context.Context, objectName string, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads++
	return "https://storage.example.com/" + objectName, nil
}

func (s *fakeAudioStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

type fakePublisher struct {
	mu        sync.Mutex
	published [][]byte
}

func (p *fakePublisher) Publish(_ string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, body)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) publishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// fakeWatcher hands out a caller-controlled channel.
type fakeWatcher struct {
	ch chan []*models.Request
}

func (w *fakeWatcher) WatchReceived(ctx context.Context, _ string) (<-chan []*models.Request, error) {
	out := make(chan []*models.Request)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case batch, ok := <-w.ch:
				if !ok {
					return
				}
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

var errSendFailed = errors.New("send failed")
