package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/firebell/firebell/internal/core"
)

// TimerStore manages timer records and the per-second schedule index.
//
// Records live in one bucket keyed by timer id. The schedule bucket maps
// each epoch second to the ids due at that second, giving the
// distributor a point lookup by fire_at instead of a table scan.
type TimerStore struct {
	records  *Store
	schedule *Store
}

// scheduleEntry lists the timers due at one epoch second.
type scheduleEntry struct {
	TimerIDs []string `json:"timer_ids"`
}

// NewTimerStore creates a TimerStore over the records and schedule buckets.
func NewTimerStore(records, schedule Bucket) *TimerStore {
	return &TimerStore{records: NewStore(records), schedule: NewStore(schedule)}
}

func scheduleKey(second int64) string {
	return strconv.FormatInt(second, 10)
}

// Create writes a new timer record and indexes it under its fire_at
// second. The record is written first so a crash between the two writes
// leaves a readable record rather than a dangling index entry.
func (s *TimerStore) Create(ctx context.Context, timer *core.Timer) error {
	if _, err := s.records.PutJSON(ctx, timer.ID, timer); err != nil {
		return fmt.Errorf("store timer %s: %w", timer.ID, err)
	}

	var entry scheduleEntry
	err := s.schedule.UpdateJSON(ctx, scheduleKey(timer.FireAt), &entry, func() {
		for _, id := range entry.TimerIDs {
			if id == timer.ID {
				return
			}
		}
		entry.TimerIDs = append(entry.TimerIDs, timer.ID)
	})
	if err != nil {
		return fmt.Errorf("index timer %s at %d: %w", timer.ID, timer.FireAt, err)
	}
	return nil
}

// Get loads a timer record and its revision for later conditional
// updates. Returns a not_found error for unknown ids.
func (s *TimerStore) Get(ctx context.Context, id string) (*core.Timer, uint64, error) {
	var timer core.Timer
	rev, err := s.records.GetJSON(ctx, id, &timer)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, core.NewNotFoundError("Timer", id)
		}
		return nil, 0, fmt.Errorf("load timer %s: %w", id, err)
	}
	return &timer, rev, nil
}

// DueTimerIDs returns the ids scheduled for the given second. A missing
// index entry means no timers are due — the common case.
func (s *TimerStore) DueTimerIDs(ctx context.Context, second int64) ([]string, error) {
	var entry scheduleEntry
	_, err := s.schedule.GetJSON(ctx, scheduleKey(second), &entry)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load schedule for second %d: %w", second, err)
	}
	return entry.TimerIDs, nil
}

// MarkFired transitions a pending timer to fired, conditional on the
// revision observed when the record was loaded. A conflict error means
// another delivery won the race; callers re-load and treat a fired
// record as already handled.
func (s *TimerStore) MarkFired(ctx context.Context, timer *core.Timer, revision uint64) error {
	if timer.Status != core.StatusPending {
		return core.NewConflictError("timer is not pending", map[string]any{
			"timer_id": timer.ID,
			"status":   timer.Status,
		})
	}

	fired := *timer
	fired.Status = core.StatusFired

	data, err := json.Marshal(&fired)
	if err != nil {
		return fmt.Errorf("marshal timer %s: %w", timer.ID, err)
	}
	if _, err := s.records.Update(ctx, timer.ID, data, revision); err != nil {
		if IsCASConflict(err) {
			return core.NewConflictError("timer was updated concurrently", map[string]any{
				"timer_id": timer.ID,
			})
		}
		return fmt.Errorf("mark timer %s fired: %w", timer.ID, err)
	}
	timer.Status = core.StatusFired
	return nil
}
