package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Sazoks/apptrix-test/internal/notify"
)

const matchEventsChannel = "match_events"

// MatchPublisher hands detected matches to the external delivery worker
// over a redis channel. Delivery policy (retries, templates, transport) is
// entirely the worker's concern.
type MatchPublisher struct {
	client  *goredis.Client
	channel string
}

func NewMatchPublisher(client *goredis.Client) *MatchPublisher {
	return &MatchPublisher{
		client:  client,
		channel: matchEventsChannel,
	}
}

func (p *MatchPublisher) NotifyMatch(ctx context.Context, event notify.MatchEvent) error {
	if p.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode match event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish match event: %w", err)
	}

	return nil
}
