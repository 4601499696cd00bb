package repository

import (
	"context"
	"fmt"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	pkgkafka "EdgePulse/pkg/kafka"
)

// signalEvent is the wire shape published to Kafka.
type signalEvent struct {
	ID         int64   `json:"id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Entry      float64 `json:"entry"`
	Stop       float64 `json:"stop"`
	TP1        float64 `json:"tp1"`
	TP2        float64 `json:"tp2"`
	TP3        float64 `json:"tp3"`
	RR         float64 `json:"rr"`
	Edge       float64 `json:"edge"`
	Confidence float64 `json:"confidence"`
	Success    float64 `json:"success"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason"`
	CreatedAt  string  `json:"created_at"`
}

// KafkaSignalPublisher publishes emitted signals to a Kafka topic,
// keyed by symbol for per-symbol ordering.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ repository.SignalPublisher = (*KafkaSignalPublisher)(nil)

// NewKafkaSignalPublisher creates the publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, s *models.Signal) error {
	evt := signalEvent{
		ID:         s.ID,
		Symbol:     s.Symbol,
		Side:       string(s.Side),
		Entry:      s.Plan.Entry,
		Stop:       s.Plan.Stop,
		TP1:        s.Plan.TP1,
		TP2:        s.Plan.TP2,
		TP3:        s.Plan.TP3,
		RR:         s.RR,
		Edge:       s.Edge,
		Confidence: s.Plan.Confidence,
		Success:    s.Plan.Success,
		Status:     string(s.Status),
		Reason:     s.Reason,
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(s.Symbol), evt); err != nil {
		return fmt.Errorf("publish signal %d: %w", s.ID, err)
	}
	return nil
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
