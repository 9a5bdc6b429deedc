package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (s *stubSession) Claims() map[string][]int32               { return nil }
func (s *stubSession) MemberID() string                         { return "stub" }
func (s *stubSession) GenerationID() int32                      { return 1 }
func (s *stubSession) MarkOffset(string, int32, int64, string)  {}
func (s *stubSession) Commit()                                  {}
func (s *stubSession) ResetOffset(string, int32, int64, string) {}
func (s *stubSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg)
}
func (s *stubSession) Context() context.Context { return s.ctx }

type stubClaim struct {
	topic    string
	messages chan *sarama.ConsumerMessage
}

func (c *stubClaim) Topic() string                            { return c.topic }
func (c *stubClaim) Partition() int32                         { return 0 }
func (c *stubClaim) InitialOffset() int64                     { return 0 }
func (c *stubClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *stubClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

// 处理器在消费循环启动前登记，消息到达时必须命中处理器
func TestConsumeClaimDispatchesRegisteredHandler(t *testing.T) {
	c := &Consumer{handlers: make(map[string]MessageHandler)}

	var got []byte
	c.RegisterHandler("doc-process", func(_ context.Context, message *sarama.ConsumerMessage) error {
		got = message.Value
		return nil
	})

	claim := &stubClaim{topic: "doc-process", messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- &sarama.ConsumerMessage{Topic: "doc-process", Value: []byte(`{"file_id":"f-1"}`)}
	close(claim.messages)

	session := &stubSession{ctx: context.Background()}
	h := &consumerGroupHandler{handlers: c.handlers}
	require.NoError(t, h.ConsumeClaim(session, claim))

	assert.Equal(t, []byte(`{"file_id":"f-1"}`), got)
	require.Len(t, session.marked, 1)
}

// 未登记处理器的主题消息照样确认，不会卡住分区
func TestConsumeClaimMarksUnhandledTopic(t *testing.T) {
	claim := &stubClaim{topic: "other", messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- &sarama.ConsumerMessage{Topic: "other", Value: []byte("x")}
	close(claim.messages)

	session := &stubSession{ctx: context.Background()}
	h := &consumerGroupHandler{handlers: map[string]MessageHandler{}}
	require.NoError(t, h.ConsumeClaim(session, claim))
	assert.Len(t, session.marked, 1)
}
