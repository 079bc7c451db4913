package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeline-backend-go/internal/models"
)

type requestServiceFixture struct {
	users     *memUserRepo
	requests  *memRequestRepo
	push      *fakePushSender
	publisher *fakePublisher
	service   RequestService
}

func newRequestServiceFixture() *requestServiceFixture {
	users := newMemUserRepo()
	requests := newMemRequestRepo()
	push := &fakePushSender{}
	publisher := &fakePublisher{}
	notifier := NewNotificationService(users, push, &fakeWatcher{}, nil, zap.NewNop())
	return &requestServiceFixture{
		users:     users,
		requests:  requests,
		push:      push,
		publisher: publisher,
		service:   NewRequestService(requests, users, notifier, publisher, "test.events", zap.NewNop()),
	}
}

func (f *requestServiceFixture) addUser(id, name, token string) {
	f.users.put(&models.User{ID: id, Name: name, DeviceToken: token})
}

// TestSendRequest_CreatesPendingAndNotifies verifies the basic send path:
// the request starts pending and the recipient's device is pinged.
func TestSendRequest_CreatesPendingAndNotifies(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "token-a")
	f.addUser("bob", "Bob", "token-b")
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, "alice", request.SenderID)
	assert.Equal(t, "bob", request.ReceiverID)
	assert.Equal(t, models.RequestStatusPending, request.Status)

	push, ok := f.push.lastSent()
	require.True(t, ok)
	assert.Equal(t, "token-b", push.Token)
	assert.Equal(t, "Emergency Request", push.Title)
	assert.Equal(t, "Alice has sent you an emergency request.", push.Body)
	assert.Equal(t, "requests", push.Data["screen"])
	assert.Equal(t, 1, f.publisher.publishedCount())
}

// TestSendRequest_RecipientNotFound verifies an unknown display name is a
// distinct error clients can surface.
func TestSendRequest_RecipientNotFound(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	ctx := context.Background()

	_, err := f.service.SendRequest(ctx, "alice", "Nobody")
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

// TestSendRequest_ToSelf verifies a user cannot request themself even when
// the name lookup resolves to their own profile.
func TestSendRequest_ToSelf(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	ctx := context.Background()

	_, err := f.service.SendRequest(ctx, "alice", "Alice")
	assert.ErrorIs(t, err, ErrCannotRequestSelf)
}

// TestSendRequest_DuplicateNamesFirstMatchWins verifies name resolution picks
// a single recipient when several users share a display name.
func TestSendRequest_DuplicateNamesFirstMatchWins(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob1", "Bob", "")
	f.addUser("bob2", "Bob", "")
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "bob1", request.ReceiverID)
}

// TestRespondToRequest_Accept verifies the pending -> accepted transition and
// that the sender is notified of the decision.
func TestRespondToRequest_Accept(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "token-a")
	f.addUser("bob", "Bob", "token-b")
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)

	require.NoError(t, f.service.RespondToRequest(ctx, "bob", request.ID, true))

	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, stored.Status)

	push, ok := f.push.lastSent()
	require.True(t, ok)
	assert.Equal(t, "token-a", push.Token)
	assert.Equal(t, "Request Accepted", push.Title)
	assert.Contains(t, push.Body, "accepted")
	assert.Equal(t, 2, f.publisher.publishedCount())
}

// TestRespondToRequest_Decline verifies the pending -> declined transition.
func TestRespondToRequest_Decline(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob", "Bob", "")
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)

	require.NoError(t, f.service.RespondToRequest(ctx, "bob", request.ID, false))

	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusDeclined, stored.Status)
}

// TestRespondToRequest_TerminalIsNoOp verifies a second decision neither
// mutates the request nor notifies anyone.
func TestRespondToRequest_TerminalIsNoOp(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "token-a")
	f.addUser("bob", "Bob", "token-b")
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, "bob", request.ID, true))

	sentBefore := f.push.sentCount()
	eventsBefore := f.publisher.publishedCount()
	require.NoError(t, f.service.RespondToRequest(ctx, "bob", request.ID, false))

	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, stored.Status, "accepted must not flip to declined")
	assert.Equal(t, sentBefore, f.push.sentCount(), "no notification for a no-op response")
	assert.Equal(t, eventsBefore, f.publisher.publishedCount(), "no event for a no-op response")
}

// TestRespondToRequest_MissingIsNoOp verifies responding to a request that was
// cancelled in the meantime succeeds without effect.
func TestRespondToRequest_MissingIsNoOp(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("bob", "Bob", "")
	ctx := context.Background()

	assert.NoError(t, f.service.RespondToRequest(ctx, "bob", "req-gone", true))
}

// TestRespondToRequest_WrongReceiver verifies only the addressee may decide.
func TestRespondToRequest_WrongReceiver(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob", "Bob", "")
	f.addUser("carol", "Carol", "")
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)

	err = f.service.RespondToRequest(ctx, "carol", request.ID, true)
	assert.ErrorIs(t, err, ErrNotRequestReceiver)
}

// TestCancelRequest_RemovesPending verifies a pending request disappears for
// both parties once cancelled.
func TestCancelRequest_RemovesPending(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob", "Bob", "")
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)

	require.NoError(t, f.service.CancelRequest(ctx, "alice", request.ID))

	sent, err := f.service.ListSent(ctx, "alice", "")
	require.NoError(t, err)
	assert.Empty(t, sent)
	received, err := f.service.ListReceived(ctx, "bob", "")
	require.NoError(t, err)
	assert.Empty(t, received)
}

// TestCancelRequest_Idempotent verifies cancelling a missing or already
// decided request succeeds without mutating anything.
func TestCancelRequest_Idempotent(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob", "Bob", "")
	ctx := context.Background()

	assert.NoError(t, f.service.CancelRequest(ctx, "alice", "req-gone"))

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, "bob", request.ID, true))

	require.NoError(t, f.service.CancelRequest(ctx, "alice", request.ID))
	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, stored.Status, "accepted request survives a late cancel")
}

// TestCancelRequest_WrongSender verifies the receiver cannot cancel the
// sender's request out from under them.
func TestCancelRequest_WrongSender(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob", "Bob", "")
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)

	err = f.service.CancelRequest(ctx, "bob", request.ID)
	assert.ErrorIs(t, err, ErrNotRequestSender)
}

// TestListRequests_FilterAndDecoration verifies status filtering and
// counterpart name resolution in both directions.
func TestListRequests_FilterAndDecoration(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob", "Bob", "")
	f.addUser("carol", "Carol", "")
	ctx := context.Background()

	toBob, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)
	_, err = f.service.SendRequest(ctx, "alice", "Carol")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, "bob", toBob.ID, true))

	pending, err := f.service.ListSent(ctx, "alice", models.RequestStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Carol", pending[0].CounterpartName)

	all, err := f.service.ListSent(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	receivedByBob, err := f.service.ListReceived(ctx, "bob", models.RequestStatusAccepted)
	require.NoError(t, err)
	require.Len(t, receivedByBob, 1)
	assert.Equal(t, "Alice", receivedByBob[0].CounterpartName)
	assert.Equal(t, "alice", receivedByBob[0].CounterpartID)
}

// TestListRequests_AllFilter verifies the "all" filter value behaves like no
// filter on both listing directions.
func TestListRequests_AllFilter(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob", "Bob", "")
	f.addUser("carol", "Carol", "")
	ctx := context.Background()

	toBob, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)
	_, err = f.service.SendRequest(ctx, "alice", "Carol")
	require.NoError(t, err)
	require.NoError(t, f.service.RespondToRequest(ctx, "bob", toBob.ID, true))

	sent, err := f.service.ListSent(ctx, "alice", models.RequestStatusAll)
	require.NoError(t, err)
	assert.Len(t, sent, 2)

	received, err := f.service.ListReceived(ctx, "bob", models.RequestStatusAll)
	require.NoError(t, err)
	assert.Len(t, received, 1)
}

// TestListRequests_InvalidFilter verifies an unknown status is rejected
// instead of silently returning everything.
func TestListRequests_InvalidFilter(t *testing.T) {
	f := newRequestServiceFixture()
	ctx := context.Background()

	_, err := f.service.ListSent(ctx, "alice", models.RequestStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidStatusFilter)
	_, err = f.service.ListReceived(ctx, "alice", models.RequestStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidStatusFilter)
}

// TestSendRequest_NotificationFailureDoesNotFail verifies a dead device token
// never loses the stored request.
func TestSendRequest_NotificationFailureDoesNotFail(t *testing.T) {
	f := newRequestServiceFixture()
	f.addUser("alice", "Alice", "")
	f.addUser("bob", "Bob", "token-b")
	f.push.sendErr = errSendFailed
	ctx := context.Background()

	request, err := f.service.SendRequest(ctx, "alice", "Bob")
	require.NoError(t, err)

	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)
}
