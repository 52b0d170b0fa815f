package bus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a loopback Bus over a local Redis pub/sub channel, letting
// several processes on one machine share rooms. Every frame for every room
// multiplexes over the one channel; Redis echoes frames back to their
// publisher, which receivers handle by filtering on Frame.Origin.
type Redis struct {
	rdb     *redis.Client
	channel string
	log     *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	subs   map[int]Handler
	nextID int
}

// NewRedis connects to redis and verifies connectivity.
func NewRedis(ctx context.Context, addr string, db int, channel string, logger *zerolog.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b := &Redis{
		rdb:     rdb,
		channel: channel,
		log:     logger,
		cancel:  cancel,
		subs:    make(map[int]Handler),
	}
	go b.receive(runCtx)
	return b, nil
}

// Publish sends the frame to the shared channel.
func (b *Redis) Publish(ctx context.Context, f Frame) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe registers a handler for inbound frames.
func (b *Redis) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Redis) receive(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var f Frame
			if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
				b.log.Warn().Err(err).Msg("bus: dropping malformed frame")
				continue
			}
			b.mu.Lock()
			handlers := make([]Handler, 0, len(b.subs))
			for _, h := range b.subs {
				handlers = append(handlers, h)
			}
			b.mu.Unlock()
			for _, h := range handlers {
				h(f)
			}
		}
	}
}

// Close stops the receive loop and shuts down the redis connection.
func (b *Redis) Close() error {
	b.cancel()
	return b.rdb.Close()
}
