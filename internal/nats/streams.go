package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// SetupJetStream creates the pipeline stream and KV buckets.
func SetupJetStream(ctx context.Context, js jetstream.JetStream) error {
	// One work-queue stream carries both queues; each subject has a
	// single durable consumer, so work-queue retention deletes a
	// message once its consumer acks it.
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{TickSubject, FireSubject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
		Discard:   jetstream.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("creating stream %s: %w", StreamName, err)
	}

	buckets := []string{
		BucketTimers,
		BucketSchedule,
		BucketWatermark,
		BucketDead,
	}
	for _, name := range buckets {
		_, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  name,
			Storage: jetstream.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("creating KV bucket %s: %w", name, err)
		}
	}

	return nil
}

// EnsureTickConsumer creates or updates the distributor's durable pull
// consumer. Tick handling is a pure read plus idempotent publishes, so a
// generous redelivery budget is safe.
func EnsureTickConsumer(ctx context.Context, js jetstream.JetStream, maxDeliver int) (jetstream.Consumer, error) {
	consumer, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       TickConsumerName,
		FilterSubject: TickSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    maxDeliver,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tick consumer: %w", err)
	}
	return consumer, nil
}

// EnsureFireConsumer creates or updates the firer's durable pull
// consumer. MaxDeliver is the callback retry bound; a message that
// exhausts it is dead-lettered by the firer before being terminated.
func EnsureFireConsumer(ctx context.Context, js jetstream.JetStream, maxDeliver int) (jetstream.Consumer, error) {
	consumer, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       FireConsumerName,
		FilterSubject: FireSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       60 * time.Second,
		MaxDeliver:    maxDeliver,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fire consumer: %w", err)
	}
	return consumer, nil
}
