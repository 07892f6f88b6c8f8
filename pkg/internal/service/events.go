package service

import (
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/queue"
)

// eventsEnabled 按主题查询事件开关.
func (vs *VaultService) eventsEnabled(topic string) bool {
	cfg := configs.GetConfig().Events
	if !cfg.Enabled {
		return false
	}

	switch topic {
	case queue.TopicCheckInCompleted:
		return cfg.CheckIn.Completed
	case queue.TopicCheckInFailed:
		return cfg.CheckIn.Failed
	case queue.TopicVersionCreated:
		return cfg.Version.Created
	case queue.TopicVersionRestored:
		return cfg.Version.Restored
	case queue.TopicVersionDeleted:
		return cfg.Version.Deleted
	default:
		return true
	}
}
