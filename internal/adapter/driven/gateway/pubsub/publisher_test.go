package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

func TestChannelNaming(t *testing.T) {
	id := domain.NewCallID()

	p := NewWithClient(nil, "", 0)
	if got, want := p.Channel(id), "voicetext:calls:"+id.String(); got != want {
		t.Fatalf("Channel=%q, want %q", got, want)
	}
	p = NewWithClient(nil, " tenant:a ", 0)
	if got, want := p.Channel(id), "tenant:a:"+id.String(); got != want {
		t.Fatalf("Channel=%q, want %q", got, want)
	}
}

func TestPublishWithoutClientIsNoop(t *testing.T) {
	var p *Publisher
	if err := p.Publish(context.Background(), domain.NewStatusEvent(domain.NewCallID(), domain.StatusIdle, time.Now())); err != nil {
		t.Fatalf("nil publisher: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("nil publisher Close: %v", err)
	}
}

func TestPublishReportsUnreachableServer(t *testing.T) {
	c := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	p := NewWithClient(c, "", 300*time.Millisecond)
	defer p.Close()

	if err := p.Publish(context.Background(), domain.NewStatusEvent(domain.NewCallID(), domain.StatusDialing, time.Now())); err == nil {
		t.Fatalf("expected an error publishing to an unreachable server")
	}
}

func TestNewRequiresAddr(t *testing.T) {
	if _, err := New(context.Background(), Options{Addr: "  "}); err == nil {
		t.Fatalf("expected an error for a blank address")
	}
}
