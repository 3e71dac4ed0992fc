package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/hrsync_server/internal/pkg/session"
)

const (
	ChannelAuthChanged = "auth_changed"
)

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishAuthChanged 发布会话变更
func (p *Publisher) PublishAuthChanged(ctx context.Context, evt session.Event) error {
	evt.Type = session.EventAuthChanged

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal auth event: %w", err)
	}

	return p.client.Publish(ctx, ChannelAuthChanged, data).Err()
}

// Observer 作为 session.Service 的观察者，把事件转发到 Redis
func (p *Publisher) Observer() func(session.Event) {
	return func(evt session.Event) {
		if err := p.PublishAuthChanged(context.Background(), evt); err != nil {
			log.Printf("Failed to publish auth_changed for user %d: %v", evt.UserID, err)
		}
	}
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅会话变更，阻塞直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*session.Event)) error {
	pubsub := s.client.Subscribe(ctx, ChannelAuthChanged)
	defer pubsub.Close()

	// 等待订阅确认，保证返回前的发布不会丢
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var evt session.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue // 忽略解析错误
			}

			handler(&evt)
		}
	}
}
