// Redis 工厂：基于 go-redis pub/sub 的轻量 Publisher 与 Subscriber.
// 没有持久化与重投语义，适合单机部署下的事件广播；入库流水线建议用 NATS JetStream.
package mq

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/filevault/pkg/configs"
)

// redisChannelBuffer 订阅通道的缓冲大小.
const redisChannelBuffer = 100

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	pub := &RedisPublisher{client: rdb}
	sub := &RedisSubscriber{
		client:  rdb,
		closeCh: make(chan struct{}),
	}

	return pub, sub, nil
}

// RedisPublisher 将消息 payload 直接发布到 Redis channel.
type RedisPublisher struct {
	client *redis.Client
}

// Publish 实现 message.Publisher. Redis pub/sub 发布即送达，发布成功即 Ack.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if err := p.client.Publish(context.Background(), topic, msg.Payload).Err(); err != nil {
			return err
		}

		msg.Ack()
	}

	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// RedisSubscriber 将 Redis channel 消息转为 Watermill 消息.
type RedisSubscriber struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	mu      sync.RWMutex
	closed  bool
	closeCh chan struct{}
}

// Subscribe 实现 message.Subscriber. 每次订阅启动一个转发 goroutine，
// 在 ctx 取消或 Close 后关闭输出通道.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil
	}

	out := make(chan *message.Message, redisChannelBuffer)
	s.pubsub = s.client.Subscribe(ctx, topic)

	go s.forward(ctx, out)

	return out, nil
}

func (s *RedisSubscriber) forward(ctx context.Context, out chan *message.Message) {
	defer close(out)

	for {
		select {
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		raw, err := s.pubsub.ReceiveMessage(ctx)
		if err != nil {
			return
		}

		msg := message.NewMessage(watermill.NewUUID(), []byte(raw.Payload))

		select {
		case out <- msg:
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeCh)

	if s.pubsub != nil {
		_ = s.pubsub.Close()
	}

	return s.client.Close()
}
