package events

import (
	"context"
	"errors"

	interfaces "github.com/sheikh-saqib/subscription-billing-bot/internal/interfaces"
)

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// FanOut publishes each event to every publisher, joining their errors.
type FanOut []interfaces.EventPublisher

func (f FanOut) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ interfaces.EventPublisher = Nop{}
	_ interfaces.EventPublisher = FanOut(nil)
)
