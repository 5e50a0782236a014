package notify

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

const DefaultChannel = "inhouse:events"

// Redis publishes every event as JSON on a pub/sub channel so other processes
// (bots, overlays) can follow the lifecycle.
type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(client *redis.Client, channel string) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, channel string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedis(client, channel), nil
}

func (r *Redis) Publish(ctx context.Context, evt types.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
