package nats

// Subject hierarchy for the timer pipeline.
//
//	fb.tick              -- one message per elapsed epoch second
//	fb.fire              -- one message per due timer
//	fb.events.timer.{id} -- lifecycle events for one timer
//	fb.events.all        -- all lifecycle events
const (
	// StreamName is the JetStream work-queue stream carrying tick and
	// fire messages.
	StreamName    = "FIREBELL"
	SubjectPrefix = "fb"

	// Subjects on the work-queue stream.
	TickSubject = SubjectPrefix + ".tick"
	FireSubject = SubjectPrefix + ".fire"

	// Durable consumer names.
	TickConsumerName = "fb-distributor"
	FireConsumerName = "fb-firer"

	// KV bucket names.
	BucketTimers    = "fb-timers"
	BucketSchedule  = "fb-schedule"
	BucketWatermark = "fb-watermark"
	BucketDead      = "fb-dead"
)
