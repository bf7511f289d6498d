package events

import (
	"fmt"
	"log"
	"os"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaPublisher writes every event to one topic keyed by event type.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
}

func NewKafkaPublisher(brokers, topic string) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"client.id":         "patient-dashboard",
		"acks":              "1",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &KafkaPublisher{producer: producer, topic: topic, done: make(chan struct{})}
	go p.watchDeliveries()
	log.Printf("Kafka producer started for topic '%s'", topic)
	return p, nil
}

func (p *KafkaPublisher) watchDeliveries() {
	defer close(p.done)
	for ev := range p.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				log.Printf("Kafka delivery failed for %s event: %v", string(e.Key), e.TopicPartition.Error)
			}
		case kafka.Error:
			fmt.Fprintf(os.Stderr, "%% Kafka Error: %v\n", e)
		}
	}
}

func (p *KafkaPublisher) Publish(eventType string, payload []byte) error {
	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(eventType),
		Value:          payload,
	}, nil)
}

func (p *KafkaPublisher) Close() {
	if left := p.producer.Flush(5000); left > 0 {
		log.Printf("Kafka producer closing with %d undelivered event(s)", left)
	}
	p.producer.Close()
	<-p.done
}
