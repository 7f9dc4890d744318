package stream

import (
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Producer publishes a JSON-encoded event to a topic.
type Producer interface {
	ProduceMessage(topic, message string) error
}

type KafkaStream struct {
	kafkaServers string
	producer     *kafka.Producer
	logger       *slog.Logger
}

func New(kafkaServers string, logger *slog.Logger) (*KafkaStream, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  kafkaServers,
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	st := &KafkaStream{
		kafkaServers: kafkaServers,
		producer:     producer,
		logger:       logger,
	}

	go st.logDeliveryReports()

	return st, nil
}

func (st *KafkaStream) logDeliveryReports() {
	for e := range st.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			st.logger.Error("message delivery failed", "topic", *m.TopicPartition.Topic, "error", m.TopicPartition.Error)
		}
	}
}

func (st *KafkaStream) ProduceMessage(topic, message string) error {
	err := st.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          []byte(message),
	}, nil)
	if err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	st.logger.Debug("message sent", "topic", topic)
	return nil
}

// Close flushes pending messages for up to five seconds.
func (st *KafkaStream) Close() {
	st.producer.Flush(5000)
	st.producer.Close()
}

type StreamConsumer struct {
	GroupId string
	Topic   string
}

func (st *KafkaStream) CreateConsumer(consumerStruct *StreamConsumer) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": st.kafkaServers,
		"group.id":          consumerStruct.GroupId,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(consumerStruct.Topic, nil); err != nil {
		consumer.Close()
		return nil, err
	}

	return consumer, nil
}
