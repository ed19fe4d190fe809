package kafka

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("kafka producer closed")

// Producer publishes keyed messages to a single topic.
type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

type writerProducer struct {
	writer *kafka.Writer
	topic  string
	closed atomic.Bool
}

// NewProducer builds a synchronous writer for cfg.OrderTopic.
func NewProducer(cfg *config.KafkaConfig) (Producer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.OrderTopic == "" {
		return nil, errors.New("kafka topic not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrderTopic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Warn("kafka writer error", map[string]interface{}{
				"detail": args,
				"format": msg,
			})
		}),
	}

	logger.Info("Kafka producer configured", map[string]interface{}{
		"brokers": cfg.Brokers,
		"topic":   cfg.OrderTopic,
	})

	return &writerProducer{writer: writer, topic: cfg.OrderTopic}, nil
}

func (p *writerProducer) Publish(ctx context.Context, key string, value []byte) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return errors.Wrapf(err, "publish to %s", p.topic)
	}
	return nil
}

func (p *writerProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
