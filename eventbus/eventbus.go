package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Channel string

const (
	Houses  Channel = "houses"
	Reports Channel = "reports"
	Users   Channel = "users"
	Blog    Channel = "blog"
)

var Channels = []Channel{Houses, Reports, Users, Blog}

func ValidChannel(name string) bool {
	for _, ch := range Channels {
		if string(ch) == name {
			return true
		}
	}
	return false
}

// Event types published by the services.
const (
	HouseCreated       = "created"
	HouseUpdated       = "updated"
	HouseStatusChanged = "status_changed"
	HouseDeleted       = "deleted"
	AnalysisCompleted  = "analysis_completed"
	ReportCreated      = "created"
	UserRegistered     = "registered"
	PostPublished      = "published"
)

type Event struct {
	Channel Channel         `json:"channel"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

func NewEvent(channel Channel, eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Channel: channel, Type: eventType, Payload: data, At: time.Now().UTC()}, nil
}

type Handler func(Event)

type Bus interface {
	Publish(ctx context.Context, evt Event) error
	// Subscribe registers h on channel and returns a func that removes it.
	Subscribe(channel Channel, h Handler) func()
}

// LocalBus delivers events to handlers in this process. Every handler runs on
// its own goroutine, so publishers never wait on subscribers.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[Channel]map[uint64]Handler
	nextID uint64
	log    *logrus.Logger
}

func NewLocalBus(log *logrus.Logger) *LocalBus {
	return &LocalBus{
		subs: make(map[Channel]map[uint64]Handler),
		log:  log,
	}
}

func (b *LocalBus) Publish(_ context.Context, evt Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[evt.Channel]))
	for _, h := range b.subs[evt.Channel] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		go b.deliver(h, evt)
	}
	return nil
}

func (b *LocalBus) deliver(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"channel": evt.Channel,
				"type":    evt.Type,
				"panic":   r,
			}).Error("event handler panicked")
		}
	}()
	h(evt)
}

func (b *LocalBus) Subscribe(channel Channel, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[uint64]Handler)
	}
	b.subs[channel][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[channel], id)
			b.mu.Unlock()
		})
	}
}

// Tee publishes every event to each bus in order and subscribes on the first.
type Tee []Bus

func (t Tee) Publish(ctx context.Context, evt Event) error {
	var first error
	for _, b := range t {
		if err := b.Publish(ctx, evt); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t Tee) Subscribe(channel Channel, h Handler) func() {
	return t[0].Subscribe(channel, h)
}

// PublishEvent builds and publishes an event, logging instead of failing:
// event delivery never decides the outcome of the request that caused it.
func PublishEvent(ctx context.Context, bus Bus, log *logrus.Logger, channel Channel, eventType string, payload interface{}) {
	if bus == nil {
		return
	}
	evt, err := NewEvent(channel, eventType, payload)
	if err == nil {
		err = bus.Publish(ctx, evt)
	}
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"channel": channel,
			"type":    eventType,
		}).Warn("unable to publish event")
	}
}
