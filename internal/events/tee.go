package events

import (
	"context"
	"errors"
)

// Tee returns a Bus that publishes to bus and to every mirror. Subscriptions
// are served by bus alone.
func Tee(bus Bus, mirrors ...Publisher) Bus {
	if len(mirrors) == 0 {
		return bus
	}
	return &tee{Bus: bus, mirrors: mirrors}
}

type tee struct {
	Bus
	mirrors []Publisher
}

// Publish always reaches every target; errors are joined.
func (t *tee) Publish(ctx context.Context, e Event) error {
	errs := []error{t.Bus.Publish(ctx, e)}
	for _, m := range t.mirrors {
		errs = append(errs, m.Publish(ctx, e))
	}
	return errors.Join(errs...)
}

func (t *tee) Close() error {
	errs := []error{t.Bus.Close()}
	for _, m := range t.mirrors {
		if c, ok := m.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
