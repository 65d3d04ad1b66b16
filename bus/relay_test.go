package bus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_DeliversAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newNode := func() *PubSub {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		ps := New()
		require.NoError(t, NewRelay(rdb, ps, "", 0).Start(ctx))
		return ps
	}
	a := newNode()
	b := newNode()

	subA, err := a.SubscribeUser(ctx, "u1")
	require.NoError(t, err)
	defer subA.Close()
	subB, err := b.SubscribeUser(ctx, "u1")
	require.NoError(t, err)
	defer subB.Close()

	a.PublishNotification(notif("n1", "u1"))

	assert.Equal(t, "n1", recv(t, subA.C()).ID)
	assert.Equal(t, "n1", recv(t, subB.C()).ID)

	// a 自己发出的消息从 redis 回来时要被过滤掉
	select {
	case n := <-subA.C():
		t.Fatalf("unexpected echo: %+v", n)
	case <-time.After(100 * time.Millisecond):
	}
}
