// Package session implements the telehealth session lifecycle: tier
// selection at creation, the scheduled/waiting/active state machine, the
// WebRTC signaling relay, the one-shot zoom-to-webrtc fallback, and the
// missed-session sweeper.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/webqx/telehealth/internal/domain/tier"
	"github.com/webqx/telehealth/internal/platform/video"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusEnded, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// validTransitions is the full transition relation. Failed is reachable
// from any non-terminal state and is handled separately in CanTransition.
var validTransitions = map[Status][]Status{
	StatusScheduled: {StatusWaiting, StatusCancelled},
	StatusWaiting:   {StatusActive, StatusEnded, StatusCancelled},
	StatusActive:    {StatusEnded},
}

// CanTransition reports whether from -> to is a legal move. Any
// non-terminal state may move to failed.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// JoinWindowBefore is how early participants may join ahead of the
// scheduled start.
const JoinWindowBefore = 10 * time.Minute

// ParticipantRole identifies the two legs of a session.
type ParticipantRole string

const (
	RolePatient  ParticipantRole = "patient"
	RoleProvider ParticipantRole = "provider"
)

// Session is one telehealth appointment and its transport state.
type Session struct {
	ID       uuid.UUID `json:"id"`
	ClinicID string    `json:"clinic_id"`
	RoomName string    `json:"room_name"`

	PatientID  string `json:"patient_id"`
	ProviderID string `json:"provider_id"`

	Tier       tier.Tier   `json:"tier"`
	TierReason tier.Reason `json:"tier_reason"`

	Status         Status     `json:"status"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	ScheduledEnd   time.Time  `json:"scheduled_end"`
	ActualStart    *time.Time `json:"actual_start,omitempty"`
	ActualEnd      *time.Time `json:"actual_end,omitempty"`

	// Platform payloads; exactly one family is populated per tier.
	ZoomMeetingID    string             `json:"zoom_meeting_id,omitempty"`
	ZoomPassword     string             `json:"-"`
	ZoomJoinURL      string             `json:"zoom_join_url,omitempty"`
	WebRTCRoomConfig *video.RoomConfig  `json:"webrtc_room_config,omitempty"`
	JitsiRoomURL     string             `json:"jitsi_room_url,omitempty"`

	RecordingEnabled  bool   `json:"recording_enabled"`
	ConnectionQuality string `json:"connection_quality,omitempty"`
	// TechnicalIssues is internal detail for support and audit; the API
	// surfaces only a generic failure message to participants.
	TechnicalIssues string `json:"-"`

	// FallbackAttempted marks that the one-shot zoom-to-webrtc retry has
	// been spent.
	FallbackAttempted bool `json:"fallback_attempted"`

	// Version guards against concurrent writers; bumped on every update.
	Version int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanJoin reports whether a participant may enter now: the session is not
// yet active-terminal and now falls inside the join window.
func (s *Session) CanJoin(now time.Time) bool {
	if s.Status != StatusScheduled && s.Status != StatusWaiting {
		return false
	}
	return !now.Before(s.ScheduledStart.Add(-JoinWindowBefore)) && !now.After(s.ScheduledEnd)
}

// Duration is the realized call length, zero until the session has both
// actual timestamps.
func (s *Session) Duration() time.Duration {
	if s.ActualStart == nil || s.ActualEnd == nil {
		return 0
	}
	return s.ActualEnd.Sub(*s.ActualStart)
}

// Missed reports whether a scheduled session was never joined and its slot
// has passed.
func (s *Session) Missed(now time.Time) bool {
	return s.Status == StatusScheduled && now.After(s.ScheduledEnd)
}

// Participant is one user's leg of a session.
type Participant struct {
	ID        uuid.UUID       `json:"id"`
	SessionID uuid.UUID       `json:"session_id"`
	UserID    string          `json:"user_id"`
	Role      ParticipantRole `json:"role"`

	JoinedAt     *time.Time `json:"joined_at,omitempty"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
	ConnectionID string     `json:"connection_id,omitempty"`

	CanShareScreen bool `json:"can_share_screen"`
	CanRecord      bool `json:"can_record"`
	IsModerator    bool `json:"is_moderator"`

	CreatedAt time.Time `json:"created_at"`
}

// Present reports whether the participant has joined and not left.
func (p *Participant) Present() bool {
	return p.JoinedAt != nil && p.LeftAt == nil
}
