package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Wyydra/voicetext/internal/adapter/driven/gateway"
	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "voicetext:calls"

type Options struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
	Timeout       time.Duration
}

// Publisher forwards call events to Redis pub/sub, one channel per call.
// implements port.RealTimeGateway
type Publisher struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func New(ctx context.Context, opts Options) (*Publisher, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewWithClient(c, opts.ChannelPrefix, opts.Timeout), nil
}

func NewWithClient(c *redis.Client, prefix string, timeout time.Duration) *Publisher {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Publisher{client: c, prefix: prefix, timeout: timeout}
}

func (p *Publisher) Channel(callID domain.CallID) string {
	return fmt.Sprintf("%s:%s", p.prefix, callID)
}

func (p *Publisher) Publish(ctx context.Context, event domain.CallEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	payload, err := json.Marshal(gateway.NewEventDTO(event))
	if err != nil {
		return fmt.Errorf("encoding call event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.Channel(event.CallID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
