// Package notify fans lifecycle events out to observers. Delivery is best
// effort; callers never block on it.
package notify

import (
	"context"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

type Broadcaster interface {
	Publish(ctx context.Context, evt types.Event) error
}

// Multi publishes to every broadcaster and combines their errors.
type Multi []Broadcaster

func (m Multi) Publish(ctx context.Context, evt types.Event) error {
	var err error
	for _, b := range m {
		err = multierr.Append(err, b.Publish(ctx, evt))
	}
	return err
}

type Nop struct{}

func (Nop) Publish(context.Context, types.Event) error { return nil }

// Func adapts a function to a Broadcaster.
type Func func(ctx context.Context, evt types.Event) error

func (f Func) Publish(ctx context.Context, evt types.Event) error { return f(ctx, evt) }
