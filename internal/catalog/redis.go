package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher pushes entries onto a Redis list for downstream consumers.
type Publisher struct {
	client *redis.Client
	key    string
}

// NewPublisher connects the client. The list key comes from
// configuration so several deployments can share one Redis.
func NewPublisher(addr, key string) *Publisher {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &Publisher{client: rdb, key: key}
}

func (p *Publisher) Name() string { return "redis" }

func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Write pushes the JSON-encoded entry onto the stream list.
func (p *Publisher) Write(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	return p.client.LPush(ctx, p.key, payload).Err()
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
