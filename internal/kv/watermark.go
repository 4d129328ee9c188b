package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go/jetstream"
)

// watermarkKey is the single key holding the last fully ticked second.
const watermarkKey = "last-tick"

// WatermarkStore holds the last epoch second for which ticks have been
// published. The value is advanced only through revision-conditional
// updates, so concurrent generator instances detect each other instead
// of both advancing.
type WatermarkStore struct {
	store *Store
}

// NewWatermarkStore creates a WatermarkStore over the given bucket.
func NewWatermarkStore(bucket Bucket) *WatermarkStore {
	return &WatermarkStore{store: NewStore(bucket)}
}

// Init seeds the watermark at first deployment so pre-existing time is
// not replayed. Losing the creation race to another instance is fine.
func (w *WatermarkStore) Init(ctx context.Context, second int64) error {
	_, err := w.store.Create(ctx, watermarkKey, []byte(strconv.FormatInt(second, 10)))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return nil
		}
		return fmt.Errorf("initialize watermark: %w", err)
	}
	return nil
}

// Load returns the current watermark second and its revision for a
// subsequent conditional advance.
func (w *WatermarkStore) Load(ctx context.Context) (int64, uint64, error) {
	data, rev, err := w.store.Get(ctx, watermarkKey)
	if err != nil {
		return 0, 0, fmt.Errorf("load watermark: %w", err)
	}
	second, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse watermark %q: %w", data, err)
	}
	return second, rev, nil
}

// Advance moves the watermark to second, conditional on the revision
// observed by Load. Returns IsCASConflict-matching errors when another
// instance advanced concurrently; callers drop the cycle and re-read.
func (w *WatermarkStore) Advance(ctx context.Context, second int64, revision uint64) (uint64, error) {
	rev, err := w.store.Update(ctx, watermarkKey, []byte(strconv.FormatInt(second, 10)), revision)
	if err != nil {
		return 0, fmt.Errorf("advance watermark to %d: %w", second, err)
	}
	return rev, nil
}
