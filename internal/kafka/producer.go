package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("kafka producer closed")

// Producer writes keyed messages to the configured topic.
type Producer interface {
	Send(ctx context.Context, key, value []byte) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

type kafkaProducer struct {
	writer *kafka.Writer
	mu     sync.Mutex
	closed bool
}

func NewProducer(cfg Config) (Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("no kafka topic configured")
	}
	batch := cfg.BatchTimeout
	if batch <= 0 {
		batch = 50 * time.Millisecond
	}
	// Topic is set on the writer, so messages must leave it empty.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: batch,
	}
	return &kafkaProducer{writer: writer}, nil
}

func (p *kafkaProducer) Send(ctx context.Context, key, value []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProducerClosed
	}
	p.mu.Unlock()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (p *kafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
