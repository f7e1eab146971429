package clicklog

import (
	"context"
	"errors"
)

// Fanout publishes every click to each of its publishers.
type Fanout struct {
	publishers []Publisher
}

var _ Publisher = (*Fanout)(nil)

// NewFanout returns a publisher that forwards to every non-nil publisher.
func NewFanout(publishers ...Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// PublishClick publishes to every publisher and joins their errors. A failing
// publisher does not stop the others.
func (f *Fanout) PublishClick(ctx context.Context, event *ClickEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	var errs []error
	for _, p := range f.publishers {
		if err := p.PublishClick(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher.
func (f *Fanout) Close() error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
