package kv

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// fakeBucket is an in-memory Bucket with NATS KV revision semantics.
type fakeBucket struct {
	mu      sync.Mutex
	entries map[string]*fakeEntry

	// Optional failure injection, keyed by operation name.
	failNext map[string]error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{
		entries:  make(map[string]*fakeEntry),
		failNext: make(map[string]error),
	}
}

func (b *fakeBucket) injectFailure(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[op] = err
}

func (b *fakeBucket) takeFailure(op string) error {
	if err, ok := b.failNext[op]; ok {
		delete(b.failNext, op)
		return err
	}
	return nil
}

func (b *fakeBucket) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("get"); err != nil {
		return nil, err
	}
	entry, ok := b.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	cp := *entry
	return &cp, nil
}

func (b *fakeBucket) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("put"); err != nil {
		return 0, err
	}
	return b.store(key, value), nil
}

func (b *fakeBucket) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("create"); err != nil {
		return 0, err
	}
	if _, ok := b.entries[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	return b.store(key, value), nil
}

func (b *fakeBucket) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("update"); err != nil {
		return 0, err
	}
	entry, ok := b.entries[key]
	if !ok || entry.revision != revision {
		return 0, &jetstream.APIError{ErrorCode: jetstream.JSErrCodeStreamWrongLastSequence}
	}
	return b.store(key, value), nil
}

func (b *fakeBucket) Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("delete"); err != nil {
		return err
	}
	delete(b.entries, key)
	return nil
}

func (b *fakeBucket) Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return nil, jetstream.ErrNoKeysFound
	}
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (b *fakeBucket) store(key string, value []byte) uint64 {
	rev := uint64(1)
	if existing, ok := b.entries[key]; ok {
		rev = existing.revision + 1
	}
	b.entries[key] = &fakeEntry{
		key:      key,
		value:    append([]byte(nil), value...),
		revision: rev,
		created:  time.Now(),
	}
	return rev
}

type fakeEntry struct {
	key      string
	value    []byte
	revision uint64
	created  time.Time
}

func (e *fakeEntry) Bucket() string                  { return "fake" }
func (e *fakeEntry) Key() string                     { return e.key }
func (e *fakeEntry) Value() []byte                   { return e.value }
func (e *fakeEntry) Revision() uint64                { return e.revision }
func (e *fakeEntry) Created() time.Time              { return e.created }
func (e *fakeEntry) Delta() uint64                   { return 0 }
func (e *fakeEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }
