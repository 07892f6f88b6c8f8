// NATS 工厂：创建带可选 JetStream 支持的 Publisher 与 Subscriber.
// 入库任务走 JetStream（持久化 + TrackMsgId 去重），版本事件可降级为普通 pub/sub.
// 配置从 configs.MQConfig 读取，支持集群 URL 与 JWT/NKey/用户名密码认证.
package mq

import (
	"context"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/filevault/pkg/configs"
)

const (
	natsDrainTimeout   = 30 * time.Second
	natsFlusherTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// natsFactory 按配置组装 NATS Publisher 与 Subscriber.
// JetStream 打开时附带 AutoProvision（自动建流）、TrackMsgId（按消息 ID 去重，
// 入库任务依赖它保证重投不重复落库）、AckAsync 与 DurablePrefix.
func natsFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	opts := connectOptions(cfg)
	jsCfg := jetStreamConfig(cfg, logger)
	marshaler := &nats.JSONMarshaler{}
	url := serverURL(cfg)

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		NatsOptions: opts,
		JetStream:   jsCfg,
		Marshaler:   marshaler,
		URL:         url,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.LoadBalance {
		// 负载均衡依赖 queue group 订阅；指标在 mq.New 统一用装饰器接入
		logger.Info("通过主题前缀启用负载均衡", watermill.LogFields{
			"prefix": cfg.SubjectPrefix,
		})
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		NatsOptions: opts,
		JetStream:   jsCfg,
		Unmarshaler: marshaler,
		URL:         url,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	return pub, sub, nil
}

// connectOptions 组装 NATS 连接选项，认证方式按 JWT > NKey > 用户名密码取第一个可用项.
func connectOptions(cfg *configs.MQConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.ClientID),
		nc.MaxReconnects(cfg.MaxReconnects),
		nc.ReconnectWait(time.Duration(cfg.ReconnectWait) * time.Second),
		nc.PingInterval(time.Duration(cfg.PingInterval) * time.Second),
		nc.ReconnectBufSize(cfg.BufferSize),
		nc.DrainTimeout(natsDrainTimeout),
		nc.FlusherTimeout(natsFlusherTimeout),
		nc.RetryOnFailedConnect(true),
	}

	switch {
	case cfg.JWT != "":
		opts = append(opts, nc.UserJWTAndSeed(cfg.JWT, cfg.NKey))
	case cfg.NKey != "":
		opts = append(opts, nc.Nkey(cfg.NKey, nil))
	case cfg.User != "":
		opts = append(opts, nc.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

func jetStreamConfig(cfg *configs.MQConfig, logger watermill.LoggerAdapter) nats.JetStreamConfig {
	jsCfg := nats.JetStreamConfig{
		Disabled: !cfg.JetStreamEnabled,
	}

	if !cfg.JetStreamEnabled {
		return jsCfg
	}

	jsCfg.AutoProvision = cfg.JetStreamAutoProvision
	jsCfg.TrackMsgId = cfg.JetStreamTrackMsgID
	jsCfg.AckAsync = cfg.JetStreamAckAsync
	jsCfg.DurablePrefix = cfg.JetStreamDurablePrefix

	logger.Info("JetStream 已启用", watermill.LogFields{
		"auto_provision": cfg.JetStreamAutoProvision,
		"track_msg_id":   cfg.JetStreamTrackMsgID,
		"ack_async":      cfg.JetStreamAckAsync,
		"durable_prefix": cfg.JetStreamDurablePrefix,
		"stream_name":    cfg.StreamName,
		"subject_prefix": cfg.SubjectPrefix,
	})

	return jsCfg
}

// serverURL 单节点取 URL，集群取逗号拼接的 ClusterURLs.
func serverURL(cfg *configs.MQConfig) string {
	if len(cfg.ClusterURLs) > 0 {
		return strings.Join(cfg.ClusterURLs, ",")
	}

	return cfg.URL
}
