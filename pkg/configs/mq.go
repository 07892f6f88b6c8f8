package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS  MQType = "nats"
	MQTypeRedis MQType = "redis"

	DefaultMQURL         = "nats://localhost:4222"
	DefaultMaxReconnects = 5               // 默认最大重连次数.
	DefaultReconnectWait = 5               // 默认重连等待时间（秒）.
	DefaultMQClientID    = "filevault-app" // 默认客户端ID

	// 队列配置常量.

	DefaultPingInterval = 20    // 默认ping间隔 (秒)
	DefaultBufferSize   = 32768 // 默认缓冲区大小 (32KB)
)

// MQConfig 消息队列配置. NATS（JetStream）为默认实现，Redis Pub/Sub 作为轻量备选.
type MQConfig struct {
	Type          MQType   `mapstructure:"type"           rule:"oneof=nats redis"`
	URL           string   `mapstructure:"url"`
	ClusterURLs   []string `mapstructure:"cluster_urls"`
	User          string   `mapstructure:"user"`
	Password      string   `mapstructure:"password"`
	ClientID      string   `mapstructure:"client_id"`
	MaxReconnects int      `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int      `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	PingInterval  int      `mapstructure:"ping_interval"  rule:"min=1,max=300"`
	BufferSize    int      `mapstructure:"buffer_size"    rule:"min=1024,max=1048576"`

	// NATS 认证.
	JWT  string `mapstructure:"jwt"`
	NKey string `mapstructure:"nkey"`

	// JetStream 持久化配置. 签入任务要求可靠投递，默认启用.
	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool   `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
	StreamName             string `mapstructure:"stream_name"`
	SubjectPrefix          string `mapstructure:"subject_prefix"`
	LoadBalance            bool   `mapstructure:"load_balance"`

	// Redis Pub/Sub 备选实现.
	RedisAddr     string `mapstructure:"redis_addr"     rule:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       rule:"min=0,max=15"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeNATS)
	v.SetDefault("mq.url", DefaultMQURL)
	v.SetDefault("mq.cluster_urls", []string{})
	v.SetDefault("mq.user", "")
	v.SetDefault("mq.password", "")
	v.SetDefault("mq.client_id", DefaultMQClientID)
	v.SetDefault("mq.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.buffer_size", DefaultBufferSize)

	v.SetDefault("mq.jwt", "")
	v.SetDefault("mq.nkey", "")

	v.SetDefault("mq.jetstream_enabled", true)
	v.SetDefault("mq.jetstream_auto_provision", true)
	v.SetDefault("mq.jetstream_track_msg_id", true)
	v.SetDefault("mq.jetstream_ack_async", false)
	v.SetDefault("mq.jetstream_durable_prefix", "filevault-durable")
	v.SetDefault("mq.stream_name", "filevault-stream")
	v.SetDefault("mq.subject_prefix", "fv.")
	v.SetDefault("mq.load_balance", true)

	v.SetDefault("mq.redis_addr", "localhost:6379")
	v.SetDefault("mq.redis_password", "")
	v.SetDefault("mq.redis_db", 0)
}
