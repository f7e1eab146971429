// Package kafka publishes click events to a Kafka topic with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/glimpse/pkg/clicklog"
	"github.com/papercomputeco/glimpse/pkg/logger"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "glimpse.clicks"

// Config configures a Publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds each publish. Defaults to 10s.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes click events as JSON messages keyed by image.
type Publisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ clicklog.Publisher = (*Publisher)(nil)

// NewPublisher creates a Kafka publisher. No connection is made until the
// first publish.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher: no brokers configured")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(w, topic, c), nil
}

func newPublisher(w messageWriter, topic string, c Config) *Publisher {
	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Publisher{
		writer:  w,
		topic:   topic,
		timeout: timeout,
		logger:  logger.OrNop(c.Logger),
	}
}

// PublishClick implements clicklog.Publisher.
func (p *Publisher) PublishClick(ctx context.Context, event *clicklog.ClickEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling click event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(event.Image),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing click event to %s: %w", p.topic, err)
	}

	p.logger.Debug("click event published",
		"topic", p.topic,
		"event_id", event.EventID,
		"image", event.Image,
	)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
