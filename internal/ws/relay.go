package ws

import (
	"context"
	"encoding/json"

	"scannimart/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// envelope is what travels over the redis channel.
type envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRelay fans events out through a redis channel so every API replica
// delivers them to its own websocket clients.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *logger.Logger
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, log *logger.Logger) *RedisRelay {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisRelay{client: client, channel: channel, hub: hub, log: log}
}

// Publish sends the event to redis. If redis refuses it the event is still
// delivered to this replica's clients.
func (r *RedisRelay) Publish(topic string, payload []byte) {
	data, err := encodeEnvelope(topic, payload)
	if err != nil {
		r.log.Error(context.Background(), "encode relay envelope", err)
		return
	}
	if err := r.client.Publish(context.Background(), r.channel, data).Err(); err != nil {
		r.log.Error(r.log.WithField(context.Background(), "topic", topic), "redis publish failed, delivering locally", err)
		r.hub.Publish(topic, payload)
	}
}

// Run forwards channel messages into the local hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			topic, payload, err := decodeEnvelope([]byte(msg.Payload))
			if err != nil {
				r.log.Warn(ctx, "dropping malformed relay message")
				continue
			}
			r.hub.Publish(topic, payload)
		}
	}
}

func encodeEnvelope(topic string, payload []byte) ([]byte, error) {
	raw := json.RawMessage(payload)
	if !json.Valid(payload) {
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			return nil, err
		}
		raw = quoted
	}
	return json.Marshal(envelope{Topic: topic, Payload: raw})
}

func decodeEnvelope(data []byte) (string, []byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}
	return env.Topic, env.Payload, nil
}
