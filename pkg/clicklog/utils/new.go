// Package clicklogutils selects a click publisher by provider name.
package clicklogutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/glimpse/pkg/clicklog"
	"github.com/papercomputeco/glimpse/pkg/clicklog/kafka"
	"github.com/papercomputeco/glimpse/pkg/clicklog/memory"
	"github.com/papercomputeco/glimpse/pkg/clicklog/nop"
	"github.com/papercomputeco/glimpse/pkg/clicklog/postgres"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *slog.Logger
}

func NewPublisher(o *NewPublisherOpts) (clicklog.Publisher, error) {
	switch o.ProviderType {
	case "", "nop", "none":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
			Logger:  o.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported click log provider: %s", o.ProviderType)
	}
}

type NewSinkOpts struct {
	SinkType    string
	PostgresDSN string
	Logger      *slog.Logger
}

// NewSink returns the queryable click sink, or nil for "none".
func NewSink(ctx context.Context, o *NewSinkOpts) (clicklog.Sink, error) {
	switch o.SinkType {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.NewSink(), nil
	case "postgres":
		return postgres.NewSink(ctx, o.PostgresDSN, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported click analytics sink: %s", o.SinkType)
	}
}
