package nats

import (
	"context"
	"fmt"
	"sort"

	"github.com/firebell/firebell/internal/core"
)

// WriteDeadLetter records a fire delivery that exhausted its retry
// budget, keyed by timer id for operator lookup.
func (b *Backend) WriteDeadLetter(ctx context.Context, entry *core.DeadLetter) error {
	if _, err := b.dead.PutJSON(ctx, entry.TimerID, entry); err != nil {
		return fmt.Errorf("store dead letter for timer %s: %w", entry.TimerID, err)
	}
	return nil
}

// ListDeadLetters returns dead-lettered fire deliveries, paginated.
func (b *Backend) ListDeadLetters(ctx context.Context, limit, offset int) ([]*core.DeadLetter, int, error) {
	keys, err := b.dead.Keys(ctx)
	if err != nil {
		return nil, 0, err
	}

	total := len(keys)
	sort.Strings(keys)

	if offset >= total {
		return []*core.DeadLetter{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	var entries []*core.DeadLetter
	for _, key := range keys[offset:end] {
		var entry core.DeadLetter
		if _, err := b.dead.GetJSON(ctx, key, &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}

	return entries, total, nil
}

// RetryDeadLetter re-publishes the fire message for a dead-lettered
// timer and removes the entry. The timer is still pending (the firer
// never marks a timer fired without a successful callback), so the
// republished message goes through the normal idempotent path.
func (b *Backend) RetryDeadLetter(ctx context.Context, timerID string) error {
	if !b.dead.Exists(ctx, timerID) {
		return core.NewNotFoundError("Dead letter", timerID)
	}

	if err := PublishFire(ctx, b.js, timerID); err != nil {
		return core.NewUnavailableError(fmt.Sprintf("republishing fire message: %v", err))
	}
	if err := b.dead.Delete(ctx, timerID); err != nil {
		return fmt.Errorf("remove dead letter for timer %s: %w", timerID, err)
	}
	return nil
}

// DeleteDeadLetter discards a dead-letter entry.
func (b *Backend) DeleteDeadLetter(ctx context.Context, timerID string) error {
	if !b.dead.Exists(ctx, timerID) {
		return core.NewNotFoundError("Dead letter", timerID)
	}
	return b.dead.Delete(ctx, timerID)
}
