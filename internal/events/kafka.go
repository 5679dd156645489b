package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes IndexCompleteEvents to the index-complete topic.
type Producer struct {
	writer messageWriter
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	topic := cfg.Topics.IndexComplete
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{
		writer: w,
		logger: logger.Component("index-event-producer", "topic", topic),
	}
}

// Publish writes ev synchronously, keyed by its snapshot path.
func (p *Producer) Publish(ctx context.Context, ev IndexCompleteEvent) error {
	msg, err := encode(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish index complete event", "snapshot", ev.Snapshot, "error", err)
		return fmt.Errorf("writing to kafka: %w", err)
	}
	p.logger.Debug("index complete event published", "snapshot", ev.Snapshot, "value_size", len(msg.Value))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func encode(ev IndexCompleteEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding index complete event: %w", err)
	}
	return kafka.Message{Key: []byte(ev.Snapshot), Value: value}, nil
}

func decode(msg kafka.Message) (IndexCompleteEvent, error) {
	var ev IndexCompleteEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("decoding index complete event: %w", err)
	}
	if ev.Snapshot == "" {
		return ev, fmt.Errorf("index complete event without snapshot path: %w", apperrors.ErrInvalidInput)
	}
	return ev, nil
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer feeds IndexCompleteEvents from the index-complete topic to a
// Handler. Undecodable messages are committed and skipped; a message whose
// handler fails is left uncommitted so the group retries it after a restart.
type Consumer struct {
	reader  messageReader
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(cfg config.KafkaConfig, handler Handler) *Consumer {
	topic := cfg.Topics.IndexComplete
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    1e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{
		reader:  r,
		handler: handler,
		logger:  logger.Component("index-event-consumer", "topic", topic),
	}
}

// Run consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		if !c.process(ctx, msg) {
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// process reports whether msg may be committed.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	ev, err := decode(msg)
	if err != nil {
		c.logger.Error("skipping malformed message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return true
	}
	if err := c.handler(ctx, ev); err != nil {
		c.logger.Error("failed to apply index complete event",
			"snapshot", ev.Snapshot,
			"offset", msg.Offset,
			"error", err,
		)
		return false
	}
	return true
}
