package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/aihub/kbchat-go/internal/logger"
	"go.uber.org/zap"
)

// Producer Kafka生产者
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// DocumentProcessEvent 文档处理事件
type DocumentProcessEvent struct {
	FileID    string    `json:"file_id"`
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
}

var globalProducer *Producer

// InitProducer 初始化Kafka生产者
func InitProducer(brokers []string, topic string) error {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return fmt.Errorf("创建Kafka生产者失败: %w", err)
	}

	globalProducer = &Producer{
		producer: producer,
		topic:    topic,
	}

	logger.Info("Kafka生产者初始化成功", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return nil
}

// GetProducer 获取全局生产者实例
func GetProducer() *Producer {
	return globalProducer
}

// SendDocumentProcessEvent 发送文档处理事件
func (p *Producer) SendDocumentProcessEvent(event *DocumentProcessEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("Kafka生产者未初始化")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.FileID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("发送消息失败: %w", err)
	}

	logger.Debug("文档处理事件已发送",
		zap.String("file_id", event.FileID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
