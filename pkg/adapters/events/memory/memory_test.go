package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/cellflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(id string) ports.Event {
	return ports.Event{
		ID:        id,
		Type:      ports.EventTypeCellComputed,
		SessionID: "session-1",
		Cell:      "data",
		Timestamp: time.Now(),
	}
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	received := make(chan ports.Event, 1)
	err := bus.Subscribe(ctx, ports.TopicCellEvents, func(ctx context.Context, e ports.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, ports.TopicCellEvents, testEvent("evt-1")))

	select {
	case got := <-received:
		assert.Equal(t, "evt-1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		err := bus.Subscribe(ctx, ports.TopicGraphEvents, func(ctx context.Context, e ports.Event) error {
			wg.Done()
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, bus.Publish(ctx, ports.TopicGraphEvents, testEvent("evt-1")))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not all subscribers received the event")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(context.Background(), ports.TopicCellEvents, testEvent("evt-1")))
}

func TestSubscriptionRemovedOnContextCancel(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())

	received := make(chan ports.Event, 8)
	require.NoError(t, bus.Subscribe(ctx, ports.TopicCellEvents, func(ctx context.Context, e ports.Event) error {
		received <- e
		return nil
	}))

	cancel()

	// Removal happens asynchronously after cancellation.
	assert.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscribers[ports.TopicCellEvents]) == 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), ports.TopicCellEvents, testEvent("evt-1")))

	select {
	case e := <-received:
		t.Fatalf("received event %q after unsubscribe", e.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClearsTopic(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx, ports.TopicCellEvents, func(ctx context.Context, e ports.Event) error {
		return nil
	}))
	require.NoError(t, bus.Unsubscribe(ctx, ports.TopicCellEvents))

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	assert.Empty(t, bus.subscribers[ports.TopicCellEvents])
}

func TestCloseDropsAllSubscriptions(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx, ports.TopicCellEvents, func(ctx context.Context, e ports.Event) error {
		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, ports.TopicGraphEvents, func(ctx context.Context, e ports.Event) error {
		return nil
	}))

	require.NoError(t, bus.Close())

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	assert.Empty(t, bus.subscribers)
	assert.True(t, bus.closed)
}

func TestClosedBusRejectsOperations(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()
	require.NoError(t, bus.Close())

	assert.Error(t, bus.Publish(ctx, ports.TopicCellEvents, testEvent("evt-1")))
	assert.Error(t, bus.Subscribe(ctx, ports.TopicCellEvents, func(ctx context.Context, e ports.Event) error {
		return nil
	}))
}
