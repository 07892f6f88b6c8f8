package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishCheckInRequested 发布 fv.checkin.requested 事件。
// 消息 ID 取 JobID 的确定性哈希，JetStream 侧据此丢弃重复投递。
func PublishCheckInRequested(pub message.Publisher, payload CheckInRequestedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicCheckInRequested, payload,
		WithHeader(opts...), WithDeterministicID(payload.JobID))
	if err != nil {
		return err
	}

	return pub.Publish(TopicCheckInRequested, msg)
}

// PublishCheckInCompleted 发布 fv.checkin.completed 事件。
func PublishCheckInCompleted(pub message.Publisher, payload CheckInCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicCheckInCompleted, payload,
		WithHeader(opts...), WithDeterministicID(payload.JobID+":completed"))
	if err != nil {
		return err
	}

	return pub.Publish(TopicCheckInCompleted, msg)
}

// PublishCheckInFailed 发布 fv.checkin.failed 事件。
func PublishCheckInFailed(pub message.Publisher, payload CheckInFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicCheckInFailed, payload,
		WithHeader(opts...), WithDeterministicID(payload.JobID+":failed"))
	if err != nil {
		return err
	}

	return pub.Publish(TopicCheckInFailed, msg)
}

// ParseCheckInRequested 将 Watermill 消息解析为强类型 Envelope（CheckInRequestedPayload）。
func ParseCheckInRequested(msg *message.Message) (Message[CheckInRequestedPayload], error) {
	return ParseWatermillMessage[CheckInRequestedPayload](msg)
}

// ParseCheckInCompleted 将 Watermill 消息解析为强类型 Envelope（CheckInCompletedPayload）。
func ParseCheckInCompleted(msg *message.Message) (Message[CheckInCompletedPayload], error) {
	return ParseWatermillMessage[CheckInCompletedPayload](msg)
}

// ParseCheckInFailed 将 Watermill 消息解析为强类型 Envelope（CheckInFailedPayload）。
func ParseCheckInFailed(msg *message.Message) (Message[CheckInFailedPayload], error) {
	return ParseWatermillMessage[CheckInFailedPayload](msg)
}
