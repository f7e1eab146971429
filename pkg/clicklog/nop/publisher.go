package nop

import (
	"context"

	"github.com/papercomputeco/glimpse/pkg/clicklog"
)

// Publisher is a no-op click publisher used for tests and disabled mode.
type Publisher struct{}

var _ clicklog.Publisher = (*Publisher)(nil)

// NewPublisher creates a new no-op click publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishClick validates input and otherwise does nothing.
func (p *Publisher) PublishClick(_ context.Context, event *clicklog.ClickEvent) error {
	return event.Validate()
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
