package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/coordinator/notify"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

func TestPublisher_PublishesTransitions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, notify.Channel("c1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := notify.NewPublisher(cache.NewRedisCacheWithClient(client, "storefront"))
	p.OnTransition(ctx, entity.Transition{CheckoutID: "c1", From: entity.StatusIdle, To: entity.StatusReconciling})
	p.OnTransition(ctx, entity.Transition{CheckoutID: "c1", From: entity.StatusCreating, To: entity.StatusCreated})

	recv := func() notify.Message {
		rctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		raw, err := sub.ReceiveMessage(rctx)
		require.NoError(t, err)
		var m notify.Message
		require.NoError(t, json.Unmarshal([]byte(raw.Payload), &m))
		return m
	}

	first := recv()
	assert.Equal(t, "RECONCILING", first.Status)
	assert.True(t, first.Processing)
	assert.Equal(t, "Processing...", first.Message)

	second := recv()
	assert.Equal(t, "CREATED", second.Status)
	assert.False(t, second.Processing)
}

func TestPublisher_RedisDownDoesNotPanic(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewRedisCache(mr.Addr(), "storefront")
	t.Cleanup(func() { _ = c.Close() })
	mr.Close()

	p := notify.NewPublisher(c)
	assert.NotPanics(t, func() {
		p.OnTransition(context.Background(), entity.Transition{CheckoutID: "c1", To: entity.StatusFailed})
	})
}
