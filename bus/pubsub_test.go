package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
)

func notif(id, userID string) message.Notification {
	return message.Notification{
		ID:         id,
		EventKind:  cons.KindLike,
		EntityType: cons.EntityPhoto,
		EntityID:   "img-1",
		UserID:     userID,
		ActorID:    "actor",
		CreatedAt:  time.Now(),
	}
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for event")
	}
	var zero T
	return zero
}

func TestSubscribeUser_OnlyReceivesOwnEvents(t *testing.T) {
	ps := New()
	ctx := context.Background()

	a, err := ps.SubscribeUser(ctx, "u1")
	require.NoError(t, err)
	defer a.Close()
	b, err := ps.SubscribeUser(ctx, "u2")
	require.NoError(t, err)
	defer b.Close()

	ps.PublishNotification(notif("n1", "u1"))
	ps.PublishNotification(notif("n2", "u2"))
	ps.PublishNotification(notif("n3", "u1"))

	assert.Equal(t, "n1", recv(t, a.C()).ID)
	assert.Equal(t, "n3", recv(t, a.C()).ID)
	assert.Equal(t, "n2", recv(t, b.C()).ID)
	assert.Len(t, a.C(), 0)
	assert.Len(t, b.C(), 0)
}

func TestSubscription_CloseUnregisters(t *testing.T) {
	ps := New()
	sub, err := ps.SubscribeUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, ps.Notifications.ListenerCount())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, ps.Notifications.ListenerCount())

	_, ok := <-sub.C()
	assert.False(t, ok)

	// 注销后再发布不应 panic
	ps.PublishNotification(notif("n1", "u1"))
}

func TestSubscription_ContextCancelUnregisters(t *testing.T) {
	ps := New()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := ps.SubscribeUser(ctx, "u1")
	require.NoError(t, err)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatalf("subscription not closed after cancel")
	}
	assert.Equal(t, 0, ps.Notifications.ListenerCount())
}

func TestSubscription_DropsWhenBufferFull(t *testing.T) {
	ps := New(WithBuffer(2))
	sub, err := ps.SubscribeUser(context.Background(), "u1")
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		ps.PublishNotification(notif("n", "u1"))
	}
	assert.Len(t, sub.C(), 2)
	assert.EqualValues(t, 3, sub.Dropped())
	assert.EqualValues(t, 3, ps.Notifications.Dropped())
}

func TestTopic_MaxListeners(t *testing.T) {
	ps := New(WithMaxListeners(1))
	ctx := context.Background()

	first, err := ps.SubscribeUser(ctx, "u1")
	require.NoError(t, err)

	_, err = ps.SubscribeUser(ctx, "u2")
	assert.ErrorIs(t, err, ErrTooManyListeners)

	first.Close()
	again, err := ps.SubscribeUser(ctx, "u2")
	require.NoError(t, err)
	again.Close()
}

func TestTopic_OnIsSynchronous(t *testing.T) {
	topic := NewTopic[int]("t", 0)
	var got []int
	off, err := topic.On(func(v int) { got = append(got, v) })
	require.NoError(t, err)

	topic.Emit(1)
	topic.Emit(2)
	assert.Equal(t, []int{1, 2}, got)

	off()
	topic.Emit(3)
	assert.Equal(t, []int{1, 2}, got)
}

func TestSubscribeChannel(t *testing.T) {
	ps := New()
	sub, err := ps.SubscribeChannel(context.Background(), "general")
	require.NoError(t, err)
	defer sub.Close()

	ps.PublishChatMessage(message.ChatMessage{ID: "m1", ChannelID: "other"})
	ps.PublishChatMessage(message.ChatMessage{ID: "m2", ChannelID: "general"})

	assert.Equal(t, "m2", recv(t, sub.C()).ID)
	assert.Len(t, sub.C(), 0)
}
