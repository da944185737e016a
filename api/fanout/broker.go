// Package fanout broadcasts status changes to connected clients.
//
// Delivery is best effort: events go to the subscribers connected when they
// are published and are never stored or replayed.
package fanout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/moby/pubsub"
	"github.com/shapeblock/shapeblock-api/api/metrics"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

// AppsTopic carries the status changes of every app.
const AppsTopic = "apps"

const deploymentTopicPrefix = "deployment:"

const (
	DeployLogsEvent = "deploy_logs"
	AppStatusEvent  = "app_status"
)

// DeploymentTopic carries the log and status changes of one deployment.
func DeploymentTopic(deploymentID string) string {
	return deploymentTopicPrefix + deploymentID
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type DeploymentLogs struct {
	Log    string              `json:"log"`
	Status db.DeploymentStatus `json:"status"`
}

type AppStatus struct {
	UUID   string       `json:"uuid"`
	Status db.AppStatus `json:"status"`
}

// DeploymentLogsEvent is published on DeploymentTopic after every callback
// with the log lines the callback appended.
func DeploymentLogsEvent(logs string, status db.DeploymentStatus) Event {
	return Event{Type: DeployLogsEvent, Data: DeploymentLogs{Log: logs, Status: status}}
}

// AppStatusChangedEvent is published on AppsTopic when a deployment ends.
func AppStatusChangedEvent(app db.App) Event {
	return Event{Type: AppStatusEvent, Data: AppStatus{UUID: app.ID, Status: app.Status}}
}

// Publisher is the sending half of the broker.
type Publisher interface {
	Publish(topic string, event Event)
}

type message struct {
	topic string
	event Event
}

type Broker struct {
	publisher *pubsub.Publisher
}

var _ Publisher = &Broker{}

// NewBroker creates a broker giving up on a subscriber that has not taken
// a message within timeout. Each subscriber buffers up to buffer messages.
func NewBroker(timeout time.Duration, buffer int) *Broker {
	return &Broker{publisher: pubsub.NewPublisher(timeout, buffer)}
}

// Publish sends event to the current subscribers of topic.
func (b *Broker) Publish(topic string, event Event) {
	if b.publisher.Len() == 0 {
		return
	}
	b.publisher.Publish(message{topic: topic, event: event})
}

// Subscribe starts receiving the events of topic. The subscription must be
// closed once the caller is done with it.
func (b *Broker) Subscribe(topic string) *Subscription {
	ch := b.publisher.SubscribeTopic(func(v interface{}) bool {
		m, ok := v.(message)
		return ok && m.topic == topic
	})
	metrics.SubscriberAdded(topicKind(topic))
	return &Subscription{broker: b, topic: topic, ch: ch}
}

// Subscribers returns the number of open subscriptions over all topics.
func (b *Broker) Subscribers() int {
	return b.publisher.Len()
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.publisher.Close()
}

type Subscription struct {
	broker *Broker
	topic  string
	ch     chan interface{}
	once   sync.Once
}

// Next blocks until the next event arrives. It returns false when ctx is
// done or the subscription was closed.
func (s *Subscription) Next(ctx context.Context) (Event, bool) {
	select {
	case <-ctx.Done():
		return Event{}, false
	case v, ok := <-s.ch:
		if !ok {
			return Event{}, false
		}
		return v.(message).event, true
	}
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.publisher.Evict(s.ch)
		metrics.SubscriberRemoved(topicKind(s.topic))
	})
}

func topicKind(topic string) string {
	if strings.HasPrefix(topic, deploymentTopicPrefix) {
		return "deployment"
	}
	return topic
}
