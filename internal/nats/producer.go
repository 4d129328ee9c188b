package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// PublishTick publishes a tick for one epoch second to the distribution
// queue. Duplicate publications for the same second are tolerated
// downstream; no dedupe is attempted here.
func PublishTick(ctx context.Context, js jetstream.JetStream, second int64) error {
	data, err := EncodeTick(second)
	if err != nil {
		return err
	}
	if _, err := js.Publish(ctx, TickSubject, data); err != nil {
		return fmt.Errorf("publish tick %d: %w", second, err)
	}
	return nil
}

// PublishFire publishes a fire message for one due timer.
func PublishFire(ctx context.Context, js jetstream.JetStream, timerID string) error {
	data, err := EncodeFire(timerID)
	if err != nil {
		return err
	}
	if _, err := js.Publish(ctx, FireSubject, data); err != nil {
		return fmt.Errorf("publish fire for timer %s: %w", timerID, err)
	}
	return nil
}
