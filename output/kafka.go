package output

import (
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// KafkaOutput 每行作为一条 Kafka 消息，主题名为 <prefix>.<topic>
type KafkaOutput struct {
	producer sarama.SyncProducer
	prefix   string
}

// NewKafkaOutput 连接 Kafka 并创建同步生产者
func NewKafkaOutput(brokers []string, prefix string) (*KafkaOutput, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Net.DialTimeout = 30 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}
	log.Printf("Kafka 生产者已连接: %v", brokers)
	return NewKafkaOutputWithProducer(producer, prefix), nil
}

// NewKafkaOutputWithProducer 使用已有的生产者
func NewKafkaOutputWithProducer(producer sarama.SyncProducer, prefix string) *KafkaOutput {
	return &KafkaOutput{producer: producer, prefix: prefix}
}

func (k *KafkaOutput) topic(name string) string {
	if k.prefix == "" {
		return name
	}
	return k.prefix + "." + name
}

func (k *KafkaOutput) WriteMessage(topic string, msg []byte) error {
	if k.producer == nil {
		return fmt.Errorf("Kafka 生产者已关闭")
	}
	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic(topic),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		return fmt.Errorf("发送消息到 %s 失败: %w", k.topic(topic), err)
	}
	return nil
}

func (k *KafkaOutput) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}
