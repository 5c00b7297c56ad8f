package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDeliversToChannelSubscribers(t *testing.T) {
	bus := NewLocalBus(logrus.New())
	received := make(chan Event, 2)

	bus.Subscribe(Houses, func(e Event) { received <- e })
	bus.Subscribe(Reports, func(e Event) { t.Errorf("unexpected delivery on reports: %v", e) })

	evt, err := NewEvent(Houses, HouseCreated, map[string]int{"id": 7})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), evt))

	select {
	case got := <-received:
		assert.Equal(t, Houses, got.Channel)
		assert.Equal(t, HouseCreated, got.Type)
		assert.JSONEq(t, `{"id":7}`, string(got.Payload))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestLocalBusUnsubscribe(t *testing.T) {
	bus := NewLocalBus(logrus.New())
	var calls int32

	unsubscribe := bus.Subscribe(Blog, func(Event) { atomic.AddInt32(&calls, 1) })
	unsubscribe()
	unsubscribe()

	evt, _ := NewEvent(Blog, PostPublished, nil)
	require.NoError(t, bus.Publish(context.Background(), evt))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestLocalBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewLocalBus(logrus.New())
	var calls int32

	bus.Subscribe(Users, func(Event) { panic("boom") })
	bus.Subscribe(Users, func(Event) { atomic.AddInt32(&calls, 1) })

	evt, _ := NewEvent(Users, UserRegistered, nil)
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 10*time.Millisecond)
}

func TestRedisBusRelaysPublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewRedisBus(client, logrus.New())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bus.Run(ctx) }()

	select {
	case <-bus.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("redis subscription not ready")
	}

	received := make(chan Event, 1)
	bus.Subscribe(Reports, func(e Event) { received <- e })

	evt, err := NewEvent(Reports, ReportCreated, map[string]string{"type": "general"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, evt))

	select {
	case got := <-received:
		assert.Equal(t, Reports, got.Channel)
		assert.JSONEq(t, `{"type":"general"}`, string(got.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("event not relayed")
	}
}

func TestTeePublishesToEveryBus(t *testing.T) {
	shared := NewLocalBus(logrus.New())
	local := NewLocalBus(logrus.New())
	var sharedCalls, localCalls int32
	shared.Subscribe(Blog, func(Event) { atomic.AddInt32(&sharedCalls, 1) })
	local.Subscribe(Blog, func(Event) { atomic.AddInt32(&localCalls, 1) })

	tee := Tee{shared, local}
	evt, err := NewEvent(Blog, PostPublished, nil)
	require.NoError(t, err)
	require.NoError(t, tee.Publish(context.Background(), evt))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&sharedCalls) == 1 && atomic.LoadInt32(&localCalls) == 1
	}, time.Second, 10*time.Millisecond)

	var teeCalls int32
	tee.Subscribe(Blog, func(Event) { atomic.AddInt32(&teeCalls, 1) })
	require.NoError(t, shared.Publish(context.Background(), evt))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&teeCalls) == 1 }, time.Second, 10*time.Millisecond)
}

func TestValidChannel(t *testing.T) {
	assert.True(t, ValidChannel("houses"))
	assert.False(t, ValidChannel("stations"))
}
