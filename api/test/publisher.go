package test

import (
	"sync"

	"github.com/shapeblock/shapeblock-api/api/fanout"
)

// Published is an event as handed to a RecordingPublisher
type Published struct {
	Topic string
	Event fanout.Event
}

// RecordingPublisher keeps every published event in order
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
}

var _ fanout.Publisher = &RecordingPublisher{}

func (p *RecordingPublisher) Publish(topic string, event fanout.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Event: event})
}

// Events returns the events published so far
func (p *RecordingPublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}

// Reset forgets the events published so far
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
