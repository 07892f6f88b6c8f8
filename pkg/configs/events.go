package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool                `mapstructure:"enabled"` // 总开关
	CheckIn CheckInEventsConfig `mapstructure:"checkin"`
	Version VersionEventsConfig `mapstructure:"version"`
}

// CheckInEventsConfig 针对入库流水线的事件开关。
type CheckInEventsConfig struct {
	Completed bool `mapstructure:"completed"`
	Failed    bool `mapstructure:"failed"`
}

// VersionEventsConfig 针对版本台账变更的事件开关。
type VersionEventsConfig struct {
	Created  bool `mapstructure:"created"`
	Restored bool `mapstructure:"restored"`
	Deleted  bool `mapstructure:"deleted"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 入库终态事件：对账与排障的主要可观测入口，默认开启
	v.SetDefault("events.checkin.completed", true)
	v.SetDefault("events.checkin.failed", true)

	// 版本事件：下游审计/同步消费，默认开启
	v.SetDefault("events.version.created", true)
	v.SetDefault("events.version.restored", true)
	v.SetDefault("events.version.deleted", true)
}
