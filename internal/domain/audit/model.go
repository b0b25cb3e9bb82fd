package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit entry.
type EventType string

const (
	EventPolicyUpdate   EventType = "policy-update"
	EventTierFallback   EventType = "tier-fallback"
	EventSessionFailure EventType = "session-failure"
)

func (e EventType) Valid() bool {
	switch e {
	case EventPolicyUpdate, EventTierFallback, EventSessionFailure:
		return true
	}
	return false
}

// Entry is one immutable audit record. Entries are append-only; there is no
// update or delete path anywhere in the codebase.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	ClinicID  string          `json:"clinic_id"`
	SessionID *uuid.UUID      `json:"session_id,omitempty"`
	EventType EventType       `json:"event_type"`
	ActorID   string          `json:"actor_id"`
	OldValue  json.RawMessage `json:"old_value,omitempty"`
	NewValue  json.RawMessage `json:"new_value,omitempty"`
	Reason    string          `json:"reason"`
	SourceIP  string          `json:"source_ip,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate checks an entry before insert.
func (e *Entry) Validate() error {
	if e.ClinicID == "" {
		return fmt.Errorf("clinic_id is required")
	}
	if !e.EventType.Valid() {
		return fmt.Errorf("invalid event type %q", e.EventType)
	}
	if e.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	return nil
}

// Snapshot marshals a value for the old/new columns. Marshal failure is a
// programming error on our own types; fall back to a descriptive blob
// rather than dropping the audit write.
func Snapshot(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}
	return b
}
