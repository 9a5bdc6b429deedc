package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/aihub/kbchat-go/internal/logger"
	"go.uber.org/zap"
)

// MessageHandler 消息处理函数
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

// Consumer Kafka消费者
type Consumer struct {
	consumer sarama.ConsumerGroup
	groupID  string
	topics   []string
	handlers map[string]MessageHandler
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

var globalConsumer *Consumer

// InitConsumer 初始化Kafka消费者
func InitConsumer(brokers []string, groupID string, topics []string) error {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true
	config.Version = sarama.V2_6_0_0

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return fmt.Errorf("创建Kafka消费者组失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	globalConsumer = &Consumer{
		consumer: consumerGroup,
		groupID:  groupID,
		topics:   topics,
		handlers: make(map[string]MessageHandler),
		ctx:      ctx,
		cancel:   cancel,
	}

	logger.Info("Kafka消费者初始化成功",
		zap.Strings("brokers", brokers),
		zap.String("group_id", groupID),
		zap.Strings("topics", topics))
	return nil
}

// GetConsumer 获取全局消费者实例
func GetConsumer() *Consumer {
	return globalConsumer
}

// RegisterHandler 注册消息处理器，必须在Start之前调用
func (c *Consumer) RegisterHandler(topic string, handler MessageHandler) {
	if c == nil {
		return
	}
	c.handlers[topic] = handler
	logger.Info("注册Kafka消息处理器", zap.String("topic", topic))
}

// Start 启动消费循环，处理器登记完毕后再调用，避免消息落在无处理器的窗口期
func (c *Consumer) Start() {
	if c == nil || c.consumer == nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				logger.Info("Kafka消费者停止")
				return
			default:
				handler := &consumerGroupHandler{handlers: c.handlers}
				if err := c.consumer.Consume(c.ctx, c.topics, handler); err != nil {
					logger.Error("消费消息失败", zap.Error(err))
					time.Sleep(5 * time.Second)
				}
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.consumer.Errors() {
			logger.Error("Kafka消费者错误", zap.Error(err))
		}
	}()
}

// Close 关闭消费者
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	if c.consumer != nil {
		return c.consumer.Close()
	}
	return nil
}

type consumerGroupHandler struct {
	handlers map[string]MessageHandler
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if handler, ok := h.handlers[message.Topic]; ok {
			if err := handler(session.Context(), message); err != nil {
				logger.Error("处理消息失败",
					zap.String("topic", message.Topic),
					zap.Error(err))
			}
		}
		session.MarkMessage(message, "")
	}
	return nil
}
