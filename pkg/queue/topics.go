package queue

// 主题命名规范：fv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：checkin(入库任务)、version(版本事件)、folder(目录事件)
// 状态：请求(requested)、完成(completed)、失败(failed)

const (
	// 入库任务领域.
	TopicCheckInRequested = "fv.checkin.requested" // 用户提交入库任务，待 worker 消费
	TopicCheckInCompleted = "fv.checkin.completed" // 入库任务全部文件处理完成
	TopicCheckInFailed    = "fv.checkin.failed"    // 入库任务失败（整体回滚，无部分提交）

	// 版本事件领域.
	TopicVersionCreated  = "fv.version.created"  // 新版本写入版本台账
	TopicVersionRestored = "fv.version.restored" // 历史版本恢复到磁盘并激活
	TopicVersionDeleted  = "fv.version.deleted"  // 版本被逻辑删除

	// 目录事件领域.
	TopicFolderCreated = "fv.folder.created" // 目录解析过程中新建文件夹
)

// 主题分组，用于批量订阅或权限控制.
var (
	// 入库任务相关主题集合.
	CheckInTopics = []string{
		TopicCheckInRequested, TopicCheckInCompleted, TopicCheckInFailed,
	}

	// 版本事件相关主题集合.
	VersionTopics = []string{
		TopicVersionCreated, TopicVersionRestored, TopicVersionDeleted,
	}
)
