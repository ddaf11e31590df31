package events

import "time"

const (
	TypeUsageRecorded  = "USAGE_RECORDED"
	TypeQuotaExhausted = "QUOTA_EXHAUSTED"
)

// Event defines the contract for all broker audit events.
type Event interface {
	// EventType returns the subject suffix for this event (e.g., "USAGE_RECORDED").
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

// Payload carries the event data plus its occurrence time.
func (e BaseEvent) Payload() map[string]interface{} {
	payload := make(map[string]interface{}, len(e.Data)+1)
	for k, v := range e.Data {
		payload[k] = v
	}
	if _, ok := payload["occurred_at"]; !ok && !e.OccurredAt.IsZero() {
		payload["occurred_at"] = e.OccurredAt.UTC().Format(time.RFC3339Nano)
	}
	return payload
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
