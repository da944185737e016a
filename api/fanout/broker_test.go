package fanout_test

import (
	"context"
	"testing"
	"time"

	"github.com/shapeblock/shapeblock-api/api/fanout"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, sub *fanout.Subscription) (fanout.Event, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	return sub.Next(ctx)
}

func Test_Publish_WithoutSubscribers(t *testing.T) {
	broker := fanout.NewBroker(time.Second, 0)
	defer broker.Close()

	done := make(chan struct{})
	go func() {
		broker.Publish(fanout.AppsTopic, fanout.Event{Type: fanout.AppStatusEvent})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked without subscribers")
	}
}

func Test_Subscribe_OnlyReceivesItsTopic(t *testing.T) {
	broker := fanout.NewBroker(time.Second, 8)
	defer broker.Close()

	apps := broker.Subscribe(fanout.AppsTopic)
	defer apps.Close()
	logs := broker.Subscribe(fanout.DeploymentTopic("d-1"))
	defer logs.Close()
	other := broker.Subscribe(fanout.DeploymentTopic("d-2"))
	defer other.Close()

	broker.Publish(fanout.DeploymentTopic("d-1"), fanout.DeploymentLogsEvent("step 1\n", db.DeploymentRunning))

	event, ok := next(t, logs)
	require.True(t, ok)
	assert.Equal(t, fanout.Event{
		Type: fanout.DeployLogsEvent,
		Data: fanout.DeploymentLogs{Log: "step 1\n", Status: db.DeploymentRunning},
	}, event)

	_, ok = next(t, apps)
	assert.False(t, ok)
	_, ok = next(t, other)
	assert.False(t, ok)
}

func Test_Subscribe_EveryoneReceives(t *testing.T) {
	broker := fanout.NewBroker(time.Second, 8)
	defer broker.Close()

	first := broker.Subscribe(fanout.AppsTopic)
	defer first.Close()
	second := broker.Subscribe(fanout.AppsTopic)
	defer second.Close()

	broker.Publish(fanout.AppsTopic, fanout.AppStatusChangedEvent(db.App{ID: "a-1", Status: db.AppReady}))

	for _, sub := range []*fanout.Subscription{first, second} {
		event, ok := next(t, sub)
		require.True(t, ok)
		assert.Equal(t, fanout.AppStatusEvent, event.Type)
		assert.Equal(t, fanout.AppStatus{UUID: "a-1", Status: db.AppReady}, event.Data)
	}
}

func Test_Close_Evicts(t *testing.T) {
	broker := fanout.NewBroker(time.Second, 8)
	defer broker.Close()

	sub := broker.Subscribe(fanout.AppsTopic)
	assert.Equal(t, 1, broker.Subscribers())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, broker.Subscribers())

	_, ok := sub.Next(context.Background())
	assert.False(t, ok)
}

func Test_SlowSubscriberIsSkipped(t *testing.T) {
	broker := fanout.NewBroker(10*time.Millisecond, 1)
	defer broker.Close()

	sub := broker.Subscribe(fanout.AppsTopic)
	defer sub.Close()

	start := time.Now()
	broker.Publish(fanout.AppsTopic, fanout.Event{Type: "first"})
	broker.Publish(fanout.AppsTopic, fanout.Event{Type: "second"})
	assert.Less(t, time.Since(start), time.Second)

	event, ok := next(t, sub)
	require.True(t, ok)
	assert.Equal(t, "first", event.Type)

	_, ok = next(t, sub)
	assert.False(t, ok, "the message published while the buffer was full is dropped")
}

func Test_Next_StopsWithContext(t *testing.T) {
	broker := fanout.NewBroker(time.Second, 0)
	defer broker.Close()
	sub := broker.Subscribe(fanout.AppsTopic)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := sub.Next(ctx)
	assert.False(t, ok)
}
