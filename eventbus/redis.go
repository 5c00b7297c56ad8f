package eventbus

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const redisPrefix = "firesafe:events:"

// RedisBus publishes through Redis pub/sub and relays every message it
// receives to its local subscribers, so each instance sees each event once.
// Local subscribers only receive events while Run is active.
type RedisBus struct {
	client *redis.Client
	local  *LocalBus
	log    *logrus.Logger
	ready  chan struct{}
}

func NewRedisBus(client *redis.Client, log *logrus.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		local:  NewLocalBus(log),
		log:    log,
		ready:  make(chan struct{}),
	}
}

func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, redisPrefix+string(evt.Channel), data).Err()
}

func (b *RedisBus) Subscribe(channel Channel, h Handler) func() {
	return b.local.Subscribe(channel, h)
}

// Ready is closed once the Redis subscription is confirmed.
func (b *RedisBus) Ready() <-chan struct{} {
	return b.ready
}

// Run relays Redis messages to local subscribers until ctx is done.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, redisPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	close(b.ready)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.log.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed event")
				continue
			}
			if evt.Channel == "" {
				evt.Channel = Channel(strings.TrimPrefix(msg.Channel, redisPrefix))
			}
			_ = b.local.Publish(ctx, evt)
		}
	}
}
