// Package events публикует события о заблокированных транзакциях в Kafka
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/models"
)

// EventTypeIncident тип события о блокировке
const EventTypeIncident = "fraud.incident"

// IncidentEvent событие о заблокированной транзакции
type IncidentEvent struct {
	Type          string               `json:"type"`
	TransactionID models.TransactionID `json:"transaction_id"`
	Amount        float64              `json:"amount"`
	Score         float64              `json:"score"`
	Severity      string               `json:"severity"`
	Threshold     float64              `json:"threshold"`
	TopFeatures   []string             `json:"top_features,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Publisher отправляет события об инцидентах
type Publisher interface {
	PublishIncidents(ctx context.Context, events []IncidentEvent) error
	Close()
}

// NewIncidentEvents строит события для заблокированных результатов пакета
func NewIncidentEvents(results []models.ScoringResult, threshold float64, severity func(float64) string, now time.Time) []IncidentEvent {
	var out []IncidentEvent
	for _, r := range results {
		if !r.IsBlocked() {
			continue
		}
		var top []string
		for _, e := range r.Explanation {
			top = append(top, e.FeatureName)
		}
		out = append(out, IncidentEvent{
			Type:          EventTypeIncident,
			TransactionID: r.TransactionID,
			Amount:        r.Amount,
			Score:         r.Score,
			Severity:      severity(r.Score),
			Threshold:     threshold,
			TopFeatures:   top,
			OccurredAt:    now.UTC(),
		})
	}
	return out
}

// producer часть kafka.Producer, которой пользуется публикатор
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// KafkaPublisher публикует события в топик Kafka
type KafkaPublisher struct {
	producer producer
	topic    string
	logger   *zap.Logger
	done     chan struct{}
}

// NewKafkaPublisher создает продюсер для указанных брокеров
func NewKafkaPublisher(brokers, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"client.id":         "fraud-scoring-service",
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return newKafkaPublisher(p, topic, logger), nil
}

func newKafkaPublisher(p producer, topic string, logger *zap.Logger) *KafkaPublisher {
	kp := &KafkaPublisher{
		producer: p,
		topic:    topic,
		logger:   logger.Named("events"),
		done:     make(chan struct{}),
	}
	go kp.watchDeliveries()
	return kp
}

// watchDeliveries логирует ошибки доставки до закрытия канала событий
func (p *KafkaPublisher) watchDeliveries() {
	defer close(p.done)
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("incident delivery failed", zap.Error(ev.TopicPartition.Error))
			}
		case kafka.Error:
			p.logger.Warn("kafka error", zap.Error(ev))
		}
	}
}

// EncodeIncident собирает сообщение Kafka с ключом по идентификатору транзакции
func EncodeIncident(topic string, event IncidentEvent) (*kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal incident: %w", err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.TransactionID),
		Value:          value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Timestamp: event.OccurredAt,
	}, nil
}

// PublishIncidents ставит события в очередь продюсера; доставка асинхронная
func (p *KafkaPublisher) PublishIncidents(ctx context.Context, events []IncidentEvent) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := EncodeIncident(p.topic, event)
		if err != nil {
			return err
		}
		if err := p.producer.Produce(msg, nil); err != nil {
			return fmt.Errorf("produce incident %s: %w", event.TransactionID, err)
		}
	}
	return nil
}

// Close дожидается отправки очереди и закрывает продюсер
func (p *KafkaPublisher) Close() {
	if remaining := p.producer.Flush(5000); remaining > 0 {
		p.logger.Warn("unflushed incident events", zap.Int("count", remaining))
	}
	p.producer.Close()
	<-p.done
}
