package queue_test

import (
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filevault/pkg/queue"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env := queue.Message[queue.CheckInRequestedPayload]{
		Header: queue.NewEventHeader(queue.TopicCheckInRequested,
			queue.WithTraceID("trace-xyz"), queue.WithProducer("filevault")),
		Payload: queue.CheckInRequestedPayload{
			JobID:              "01JOB",
			UserID:             "alice@example.com",
			WorkingDirectoryID: 7,
			Folders:            []string{"docs"},
			Files:              []string{"notes.txt"},
		},
	}

	data, err := queue.Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := queue.Decode[queue.CheckInRequestedPayload](data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Header.Topic != queue.TopicCheckInRequested || got.Header.TraceID != "trace-xyz" {
		t.Fatalf("header = %+v", got.Header)
	}

	if got.Payload.JobID != "01JOB" || got.Payload.WorkingDirectoryID != 7 {
		t.Fatalf("payload = %+v", got.Payload)
	}

	if len(got.Payload.Folders) != 1 || got.Payload.Folders[0] != "docs" {
		t.Fatalf("folders = %v", got.Payload.Folders)
	}
}

func TestDeterministicID(t *testing.T) {
	a := queue.DeterministicID("01JOB")
	b := queue.DeterministicID("01JOB")

	if a != b {
		t.Fatalf("same key must produce same id: %s vs %s", a, b)
	}

	if len(a) != 16 {
		t.Fatalf("id length = %d, want 16 hex chars", len(a))
	}

	if a == queue.DeterministicID("01OTHER") {
		t.Fatal("distinct keys should not collide")
	}
}

func TestNewWatermillMessageMetadata(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicVersionCreated,
		queue.VersionCreatedPayload{UserID: "alice@example.com"},
		queue.WithHeader(queue.WithProducer("filevault"), queue.WithTraceID("trace-1")),
		queue.WithDeterministicID("01JOB"),
	)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	if msg.UUID != queue.DeterministicID("01JOB") {
		t.Fatalf("uuid = %s, want deterministic id", msg.UUID)
	}

	for k, want := range map[string]string{
		"topic":    queue.TopicVersionCreated,
		"producer": "filevault",
		"trace_id": "trace-1",
		"version":  queue.PayloadVersionV1,
	} {
		if got := msg.Metadata.Get(k); got != want {
			t.Errorf("metadata %s = %q, want %q", k, got, want)
		}
	}

	if msg.Metadata.Get("occurred_at") == "" {
		t.Error("occurred_at metadata missing")
	}
}

func TestNewWatermillMessageRandomID(t *testing.T) {
	a, err := queue.NewWatermillMessage(queue.TopicFolderCreated, queue.FolderCreatedPayload{})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	b, err := queue.NewWatermillMessage(queue.TopicFolderCreated, queue.FolderCreatedPayload{})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	if a.UUID == b.UUID {
		t.Fatal("messages without deterministic key must get unique ids")
	}
}

// capturePublisher 收集发布的消息.
type capturePublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{messages: make(map[string][]*message.Message)}
}

func (p *capturePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[topic] = append(p.messages[topic], msgs...)

	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestPublishCheckInRequested(t *testing.T) {
	pub := newCapturePublisher()

	payload := queue.CheckInRequestedPayload{
		JobID:              "01JOB",
		UserID:             "alice@example.com",
		WorkingDirectoryID: 3,
		Files:              []string{"a.txt"},
	}

	if err := queue.PublishCheckInRequested(pub, payload, queue.WithProducer("filevault")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msgs := pub.messages[queue.TopicCheckInRequested]
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}

	// 消息 ID 取 JobID 的确定性哈希，重复投递可被服务端去重
	if msgs[0].UUID != queue.DeterministicID("01JOB") {
		t.Fatalf("uuid = %s, want deterministic id of job", msgs[0].UUID)
	}

	env, err := queue.ParseCheckInRequested(msgs[0])
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if env.Payload.UserID != "alice@example.com" || env.Payload.WorkingDirectoryID != 3 {
		t.Fatalf("payload = %+v", env.Payload)
	}

	if env.Header.Producer != "filevault" {
		t.Fatalf("producer = %s", env.Header.Producer)
	}
}

func TestParseCheckInCompletedAndFailed(t *testing.T) {
	pub := newCapturePublisher()

	completed := queue.CheckInCompletedPayload{
		JobID:  "01JOB",
		UserID: "alice@example.com",
		Results: []queue.CheckInResult{
			{FileID: 1, Path: "/vault/a.txt", VersionNumber: 2, Checksum: "abc"},
		},
	}
	if err := queue.PublishCheckInCompleted(pub, completed); err != nil {
		t.Fatalf("publish completed: %v", err)
	}

	failed := queue.CheckInFailedPayload{JobID: "01JOB", UserID: "alice@example.com", Error: "boom"}
	if err := queue.PublishCheckInFailed(pub, failed); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	cEnv, err := queue.ParseCheckInCompleted(pub.messages[queue.TopicCheckInCompleted][0])
	if err != nil {
		t.Fatalf("parse completed: %v", err)
	}

	if len(cEnv.Payload.Results) != 1 || cEnv.Payload.Results[0].VersionNumber != 2 {
		t.Fatalf("completed payload = %+v", cEnv.Payload)
	}

	fEnv, err := queue.ParseCheckInFailed(pub.messages[queue.TopicCheckInFailed][0])
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if fEnv.Payload.Error != "boom" {
		t.Fatalf("failed payload = %+v", fEnv.Payload)
	}
}
