package nats

import (
	"encoding/json"
	"fmt"
)

// TickMessage carries one elapsed epoch second on the distribution
// queue. Opaque to everything except the distributor.
type TickMessage struct {
	Second int64 `json:"second"`
}

// FireMessage carries one due timer id on the fire queue. Opaque to
// everything except the firer.
type FireMessage struct {
	TimerID string `json:"timer_id"`
}

// EncodeTick serializes a tick message.
func EncodeTick(second int64) ([]byte, error) {
	return json.Marshal(TickMessage{Second: second})
}

// DecodeTick deserializes a tick message.
func DecodeTick(data []byte) (TickMessage, error) {
	var msg TickMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return TickMessage{}, fmt.Errorf("decode tick message: %w", err)
	}
	return msg, nil
}

// EncodeFire serializes a fire message.
func EncodeFire(timerID string) ([]byte, error) {
	return json.Marshal(FireMessage{TimerID: timerID})
}

// DecodeFire deserializes a fire message.
func DecodeFire(data []byte) (FireMessage, error) {
	var msg FireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return FireMessage{}, fmt.Errorf("decode fire message: %w", err)
	}
	if msg.TimerID == "" {
		return FireMessage{}, fmt.Errorf("decode fire message: empty timer_id")
	}
	return msg, nil
}
