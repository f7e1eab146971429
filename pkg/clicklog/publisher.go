package clicklog

import "context"

// Publisher publishes click events to an event stream backend.
type Publisher interface {
	PublishClick(ctx context.Context, event *ClickEvent) error
	Close() error
}
