package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/webqx/telehealth/internal/domain/analytics"
	"github.com/webqx/telehealth/internal/domain/audit"
	"github.com/webqx/telehealth/internal/domain/entitlement"
	"github.com/webqx/telehealth/internal/domain/policy"
	"github.com/webqx/telehealth/internal/domain/tier"
	"github.com/webqx/telehealth/internal/platform/db"
	"github.com/webqx/telehealth/internal/platform/video"
	"github.com/webqx/telehealth/internal/platform/ws"
)

// TxRunner executes fn inside one unit of work.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Deps wires the service's collaborators.
type Deps struct {
	Pool         *pgxpool.Pool
	Repo         Repository
	Policies     *policy.Service
	Entitlements *entitlement.Service
	Recorder     audit.Recorder
	Analytics    *analytics.Service
	Prober       *tier.Prober
	Zoom         video.PlatformClient // nil when no credentials are configured
	Jitsi        *video.JitsiBuilder
	ICE          video.ICEConfig
	Hub          ws.Publisher
	Logger       zerolog.Logger
}

type Service struct {
	repo         Repository
	policies     *policy.Service
	entitlements *entitlement.Service
	recorder     audit.Recorder
	analytics    *analytics.Service
	prober       *tier.Prober
	zoom         video.PlatformClient
	jitsi        *video.JitsiBuilder
	ice          video.ICEConfig
	channel      *Channel
	hub          ws.Publisher
	locks        *keyedMutex
	tx           TxRunner
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:         d.Repo,
		policies:     d.Policies,
		entitlements: d.Entitlements,
		recorder:     d.Recorder,
		analytics:    d.Analytics,
		prober:       d.Prober,
		zoom:         d.Zoom,
		jitsi:        d.Jitsi,
		ice:          d.ICE,
		channel:      NewChannel(),
		hub:          d.Hub,
		locks:        newKeyedMutex(),
		logger:       d.Logger.With().Str("component", "session_service").Logger(),
		now:          time.Now,
	}
	if d.Pool != nil {
		s.tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, d.Pool, fn)
		}
	} else {
		s.tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return s
}

// Channel exposes the signaling relay for the handler layer.
func (s *Service) Channel() *Channel {
	return s.channel
}

// CreateRequest describes a new appointment.
type CreateRequest struct {
	PatientID      string            `json:"patient_id"`
	ProviderID     string            `json:"provider_id"`
	ScheduledStart time.Time         `json:"scheduled_start"`
	ScheduledEnd   time.Time         `json:"scheduled_end"`
	TierPreference *tier.Tier        `json:"tier_preference,omitempty"`
	// Bandwidth optionally carries a client-side measurement; when absent
	// and detection is enabled, the server probe runs instead.
	Bandwidth *tier.Measurement `json:"bandwidth,omitempty"`
}

func (r CreateRequest) validate() error {
	if r.PatientID == "" || r.ProviderID == "" {
		return fmt.Errorf("patient_id and provider_id are required")
	}
	if r.PatientID == r.ProviderID {
		return fmt.Errorf("patient and provider must differ")
	}
	if !r.ScheduledEnd.After(r.ScheduledStart) {
		return fmt.Errorf("scheduled_end must be after scheduled_start")
	}
	return nil
}

func newRoomName() string {
	return "session_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Create selects a tier and creates the session in scheduled state.
// Session row, participant rows and any required audit entry commit
// atomically; an audit failure abandons the creation.
func (s *Service) Create(ctx context.Context, clinicID, actorID string, req CreateRequest) (*Session, *tier.Decision, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	pol, err := s.policies.Get(ctx, clinicID)
	if err != nil {
		return nil, nil, err
	}
	entitled, err := s.entitlements.Resolve(ctx, clinicID)
	if err != nil {
		return nil, nil, err
	}

	input := tier.Input{
		Policy:            pol.TierPolicy(),
		Entitled:          entitled,
		PatientPreference: req.TierPreference,
	}
	if pol.BandwidthDetectionEnabled {
		m := req.Bandwidth
		if m == nil && s.prober != nil {
			probed := s.prober.Measure(ctx)
			m = &probed
		}
		if m != nil && !m.Unknown {
			rec := tier.Recommend(m.UploadMbps, m.DownloadMbps, pol.MinBandwidthMbpsForZoom)
			input.Bandwidth = &rec
		}
	}
	decision := tier.Select(input)

	sess := &Session{
		ID:               uuid.New(),
		ClinicID:         clinicID,
		RoomName:         newRoomName(),
		PatientID:        req.PatientID,
		ProviderID:       req.ProviderID,
		Tier:             decision.Tier,
		TierReason:       decision.Reason,
		Status:           StatusScheduled,
		ScheduledStart:   req.ScheduledStart.UTC(),
		ScheduledEnd:     req.ScheduledEnd.UTC(),
		RecordingEnabled: pol.RecordingEnabled,
	}

	provisionFellBack, err := s.provision(ctx, sess, pol)
	if err != nil {
		return nil, nil, err
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, sess); err != nil {
			return err
		}
		participants := []*Participant{
			{SessionID: sess.ID, UserID: req.PatientID, Role: RolePatient},
			{SessionID: sess.ID, UserID: req.ProviderID, Role: RoleProvider,
				CanShareScreen: true, CanRecord: true, IsModerator: true},
		}
		for _, p := range participants {
			if err := s.repo.CreateParticipant(ctx, p); err != nil {
				return err
			}
		}

		if decision.AuditRequired {
			if err := s.recorder.Record(ctx, &audit.Entry{
				ClinicID:  clinicID,
				SessionID: &sess.ID,
				EventType: audit.EventTierFallback,
				ActorID:   actorID,
				NewValue:  audit.Snapshot(decision),
				Reason:    "clinic default tier requires entitlement the subscription does not include",
			}); err != nil {
				return err
			}
		}
		if provisionFellBack {
			if err := s.recorder.Record(ctx, &audit.Entry{
				ClinicID:  clinicID,
				SessionID: &sess.ID,
				EventType: audit.EventTierFallback,
				ActorID:   "system",
				NewValue:  audit.Snapshot(sess),
				Reason:    "managed platform provisioning failed at creation; fell back to webrtc",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if sess.Tier == tier.TierWebRTC {
		s.channel.Open(sess.ID)
	}
	s.publishStatus(ctx, sess)

	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("clinic_id", clinicID).
		Str("tier", string(sess.Tier)).
		Str("tier_reason", string(sess.TierReason)).
		Msg("session created")
	return sess, &decision, nil
}

// provision fills the platform payload for the session's tier. A managed-
// platform provisioning failure consumes the fallback budget when the
// clinic allows it; otherwise it is a transport failure.
func (s *Service) provision(ctx context.Context, sess *Session, pol *policy.ClinicPolicy) (fellBack bool, err error) {
	switch sess.Tier {
	case tier.TierZoom:
		if err := s.provisionZoom(ctx, sess); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("zoom provisioning failed")
			if !pol.AllowFallbackToWebRTC {
				return false, fmt.Errorf("%w: %v", ErrTransportFailure, err)
			}
			sess.Tier = tier.TierWebRTC
			sess.TierReason = tier.ReasonPriorTierFailure
			sess.FallbackAttempted = true
			sess.TechnicalIssues = err.Error()
			s.provisionWebRTC(sess)
			return true, nil
		}
	case tier.TierJitsi:
		sess.JitsiRoomURL = s.jitsi.RoomURL(sess.RoomName)
	default:
		s.provisionWebRTC(sess)
	}
	return false, nil
}

func (s *Service) provisionZoom(ctx context.Context, sess *Session) error {
	if s.zoom == nil {
		return fmt.Errorf("managed platform is not configured")
	}
	meeting, err := s.zoom.CreateMeeting(ctx, video.MeetingRequest{
		Topic:     "Telehealth Session",
		StartTime: sess.ScheduledStart,
		Duration:  sess.ScheduledEnd.Sub(sess.ScheduledStart),
	})
	if err != nil {
		return err
	}
	sess.ZoomMeetingID = meeting.MeetingID
	sess.ZoomPassword = meeting.Password
	sess.ZoomJoinURL = meeting.JoinURL
	return nil
}

func (s *Service) provisionWebRTC(sess *Session) {
	cfg := video.NewRoomConfig(sess.RoomName, s.ice)
	sess.WebRTCRoomConfig = &cfg
	sess.ZoomMeetingID, sess.ZoomPassword, sess.ZoomJoinURL = "", "", ""
	sess.JitsiRoomURL = ""
}

// Get returns the session for a caller that participates in it.
func (s *Service) Get(ctx context.Context, id uuid.UUID, userID string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetParticipant(ctx, id, userID); err != nil {
		return nil, err
	}
	return sess, nil
}

// Join marks the participant present, moves scheduled sessions to waiting,
// and activates the session once its gate is satisfied.
func (s *Service) Join(ctx context.Context, id uuid.UUID, userID string) (*JoinInfo, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	part, err := s.repo.GetParticipant(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if sess.Status != StatusActive && !sess.CanJoin(now) {
		return nil, ErrJoinWindowClosed
	}

	if part.JoinedAt == nil || part.LeftAt != nil {
		part.JoinedAt = &now
		part.LeftAt = nil
		part.ConnectionID = fmt.Sprintf("%s_%s_%s", sess.Tier, sess.RoomName, userID)
		if err := s.repo.UpdateParticipant(ctx, part); err != nil {
			return nil, err
		}
	}

	if sess.Status == StatusScheduled {
		sess.Status = StatusWaiting
		if err := s.repo.Update(ctx, sess); err != nil {
			return nil, err
		}
		s.publishStatus(ctx, sess)
	}

	if err := s.maybeActivate(ctx, sess); err != nil {
		return nil, err
	}

	return s.joinInfo(sess, part), nil
}

// maybeActivate applies the waiting-to-active gate: both participants
// present, and for webrtc sessions a completed offer/answer exchange.
func (s *Service) maybeActivate(ctx context.Context, sess *Session) error {
	if sess.Status != StatusWaiting {
		return nil
	}

	parts, err := s.repo.ListParticipants(ctx, sess.ID)
	if err != nil {
		return err
	}
	present := 0
	for _, p := range parts {
		if p.Present() {
			present++
		}
	}
	if present < 2 {
		return nil
	}
	if sess.Tier == tier.TierWebRTC && !s.channel.Negotiated(sess.ID) {
		return nil
	}

	now := s.now().UTC()
	sess.Status = StatusActive
	sess.ActualStart = &now
	if err := s.repo.Update(ctx, sess); err != nil {
		return err
	}
	s.publishStatus(ctx, sess)
	s.logger.Info().Str("session_id", sess.ID.String()).Msg("session active")
	return nil
}

// SignalOffer relays an SDP offer. Terminal or unknown sessions are
// indistinguishable to callers.
func (s *Service) SignalOffer(ctx context.Context, id uuid.UUID, userID string, payload json.RawMessage) error {
	if err := s.checkSignalingAccess(ctx, id, userID); err != nil {
		return err
	}
	if err := s.channel.SendOffer(id, userID, payload); err != nil {
		return err
	}
	s.publishSignaling(ctx, id)
	return nil
}

// SignalAnswer relays an SDP answer and re-checks the activation gate,
// since the answer may complete the negotiation.
func (s *Service) SignalAnswer(ctx context.Context, id uuid.UUID, userID string, payload json.RawMessage) error {
	if err := s.checkSignalingAccess(ctx, id, userID); err != nil {
		return err
	}
	if err := s.channel.SendAnswer(id, userID, payload); err != nil {
		return err
	}
	s.publishSignaling(ctx, id)

	unlock := s.locks.Lock(id)
	defer unlock()
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.maybeActivate(ctx, sess)
}

// SignalCandidate relays one ICE candidate, preserving per-endpoint order.
func (s *Service) SignalCandidate(ctx context.Context, id uuid.UUID, userID string, payload json.RawMessage) error {
	if err := s.checkSignalingAccess(ctx, id, userID); err != nil {
		return err
	}
	if err := s.channel.SendCandidate(id, userID, payload); err != nil {
		return err
	}
	s.publishSignaling(ctx, id)
	return nil
}

// CollectSignals drains pending messages addressed to the caller.
func (s *Service) CollectSignals(ctx context.Context, id uuid.UUID, userID string) ([]*Message, error) {
	if err := s.checkSignalingAccess(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.channel.Collect(id, userID)
}

func (s *Service) checkSignalingAccess(ctx context.Context, id uuid.UUID, userID string) error {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status.Terminal() {
		return ErrSessionNotFound
	}
	if _, err := s.repo.GetParticipant(ctx, id, userID); err != nil {
		return err
	}
	return nil
}

// Leave records the participant's departure and drives the resulting
// transition: active ends the call, earlier states cancel it. Leaving an
// already-terminal session is a no-op success.
func (s *Service) Leave(ctx context.Context, id uuid.UUID, userID string) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	part, err := s.repo.GetParticipant(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if sess.Status.Terminal() {
		return sess, nil
	}

	now := s.now().UTC()
	if part.LeftAt == nil {
		part.LeftAt = &now
		if err := s.repo.UpdateParticipant(ctx, part); err != nil {
			return nil, err
		}
	}

	switch sess.Status {
	case StatusActive:
		sess.Status = StatusEnded
		sess.ActualEnd = &now
	default:
		sess.Status = StatusCancelled
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, err
	}

	s.channel.Close(id)
	s.publishStatus(ctx, sess)

	if sess.Status == StatusEnded {
		s.analytics.RecordSessionEnd(ctx, sess.ClinicID, sess.Tier, sess.Duration(), qualityScore(sess.ConnectionQuality))
	}
	s.logger.Info().
		Str("session_id", id.String()).
		Str("user_id", userID).
		Str("status", string(sess.Status)).
		Msg("participant left")
	return sess, nil
}

// Cancel aborts a session that has not reached waiting. Cancelling an
// already-cancelled session is a no-op success.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, userID string) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetParticipant(ctx, id, userID); err != nil {
		return nil, err
	}

	if sess.Status == StatusCancelled {
		return sess, nil
	}
	if sess.Status != StatusScheduled {
		return nil, ErrInvalidTransition
	}

	sess.Status = StatusCancelled
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, err
	}
	s.channel.Close(id)
	s.publishStatus(ctx, sess)
	return sess, nil
}

// ReportTransportFailure handles an unrecoverable platform or signaling
// error. A zoom session with an unspent fallback budget is demoted to
// webrtc and renegotiated; anything else fails terminally. Both paths
// audit atomically with the transition.
func (s *Service) ReportTransportFailure(ctx context.Context, id uuid.UUID, userID, detail string) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetParticipant(ctx, id, userID); err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return sess, nil
	}

	if sess.Tier == tier.TierZoom && !sess.FallbackAttempted {
		pol, err := s.policies.Get(ctx, sess.ClinicID)
		if err != nil {
			return nil, err
		}
		if pol.AllowFallbackToWebRTC {
			return s.fallbackToWebRTC(ctx, sess, detail)
		}
	}

	return s.fail(ctx, sess, detail)
}

func (s *Service) fallbackToWebRTC(ctx context.Context, sess *Session, detail string) (*Session, error) {
	old := *sess

	sess.Tier = tier.TierWebRTC
	sess.TierReason = tier.ReasonPriorTierFailure
	sess.FallbackAttempted = true
	sess.TechnicalIssues = detail
	s.provisionWebRTC(sess)
	// Renegotiation starts over; an active call drops back to waiting.
	if sess.Status == StatusActive {
		sess.Status = StatusWaiting
		sess.ActualStart = nil
	}

	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, sess); err != nil {
			return err
		}
		return s.recorder.Record(ctx, &audit.Entry{
			ClinicID:  sess.ClinicID,
			SessionID: &sess.ID,
			EventType: audit.EventTierFallback,
			ActorID:   "system",
			OldValue:  audit.Snapshot(old),
			NewValue:  audit.Snapshot(sess),
			Reason:    "managed platform failure; retrying on webrtc",
		})
	})
	if err != nil {
		return nil, err
	}

	s.channel.Open(sess.ID)
	s.channel.Reset(sess.ID)
	s.analytics.RecordFailure(ctx, sess.ClinicID, tier.TierZoom)
	s.publishEvent(ctx, sess, ws.EventTierFallback)

	s.logger.Warn().
		Str("session_id", sess.ID.String()).
		Str("detail", detail).
		Msg("session fell back to webrtc")
	return sess, nil
}

func (s *Service) fail(ctx context.Context, sess *Session, detail string) (*Session, error) {
	failedTier := sess.Tier
	now := s.now().UTC()

	sess.Status = StatusFailed
	sess.TechnicalIssues = detail
	if sess.ActualStart != nil {
		sess.ActualEnd = &now
	}

	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, sess); err != nil {
			return err
		}
		return s.recorder.Record(ctx, &audit.Entry{
			ClinicID:  sess.ClinicID,
			SessionID: &sess.ID,
			EventType: audit.EventSessionFailure,
			ActorID:   "system",
			NewValue:  audit.Snapshot(sess),
			Reason:    detail,
		})
	})
	if err != nil {
		return nil, err
	}

	s.channel.Close(sess.ID)
	s.analytics.RecordFailure(ctx, sess.ClinicID, failedTier)
	s.publishStatus(ctx, sess)

	s.logger.Error().
		Str("session_id", sess.ID.String()).
		Str("detail", detail).
		Msg("session failed")
	return sess, nil
}

// SweepMissed fails scheduled sessions whose slot fully passed without
// either participant arriving. Returns the number of sessions failed.
func (s *Service) SweepMissed(ctx context.Context) (int, error) {
	missed, err := s.repo.ListMissed(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, sess := range missed {
		err := func() error {
			unlock := s.locks.Lock(sess.ID)
			defer unlock()

			cur, err := s.repo.Get(ctx, sess.ID)
			if err != nil {
				return err
			}
			if !cur.Missed(s.now().UTC()) {
				return nil
			}
			if _, err := s.fail(ctx, cur, "missed session: never joined before scheduled end"); err != nil {
				return err
			}
			swept++
			return nil
		}()
		if err != nil {
			s.logger.Error().Err(err).Str("session_id", sess.ID.String()).Msg("failed to sweep missed session")
		}
	}
	return swept, nil
}

// StartSweeper runs SweepMissed on a ticker until ctx is cancelled.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := s.SweepMissed(ctx); err != nil {
					s.logger.Error().Err(err).Msg("missed-session sweep failed")
				} else if n > 0 {
					s.logger.Info().Int("count", n).Msg("swept missed sessions")
				}
			}
		}
	}()
}

func (s *Service) List(ctx context.Context, clinicID string, f ListFilter, limit, offset int) ([]*Session, int, error) {
	return s.repo.List(ctx, clinicID, f, limit, offset)
}

func (s *Service) Upcoming(ctx context.Context, userID string, limit int) ([]*Session, error) {
	return s.repo.ListUpcoming(ctx, userID, s.now().UTC(), limit)
}

// JoinInfo is the platform-specific payload a participant needs to connect.
type JoinInfo struct {
	SessionID uuid.UUID       `json:"session_id"`
	Platform  tier.Tier       `json:"platform"`
	Status    Status          `json:"status"`
	Role      ParticipantRole `json:"role"`

	ConnectionID string `json:"connection_id,omitempty"`

	JoinURL   string `json:"join_url,omitempty"`
	MeetingID string `json:"meeting_id,omitempty"`
	Password  string `json:"password,omitempty"`

	RoomConfig *video.RoomConfig `json:"room_config,omitempty"`

	Permissions struct {
		CanShareScreen bool `json:"can_share_screen"`
		CanRecord      bool `json:"can_record"`
		IsModerator    bool `json:"is_moderator"`
	} `json:"permissions"`
}

// JoinInfoFor builds join info without changing participant state.
func (s *Service) JoinInfoFor(ctx context.Context, id uuid.UUID, userID string) (*JoinInfo, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	part, err := s.repo.GetParticipant(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.joinInfo(sess, part), nil
}

func (s *Service) joinInfo(sess *Session, part *Participant) *JoinInfo {
	info := &JoinInfo{
		SessionID:    sess.ID,
		Platform:     sess.Tier,
		Status:       sess.Status,
		Role:         part.Role,
		ConnectionID: part.ConnectionID,
	}
	info.Permissions.CanShareScreen = part.CanShareScreen
	info.Permissions.CanRecord = part.CanRecord
	info.Permissions.IsModerator = part.IsModerator

	switch sess.Tier {
	case tier.TierZoom:
		info.JoinURL = sess.ZoomJoinURL
		info.MeetingID = sess.ZoomMeetingID
		info.Password = sess.ZoomPassword
	case tier.TierJitsi:
		info.JoinURL = s.jitsi.JoinURL(sess.RoomName, part.UserID, part.UserID, string(part.Role), part.IsModerator)
	default:
		info.RoomConfig = sess.WebRTCRoomConfig
	}
	return info
}

// qualityScore maps the reported connection quality onto the 0-10 scale
// used by analytics.
func qualityScore(quality string) float64 {
	switch quality {
	case "excellent":
		return 9
	case "good":
		return 7.5
	case "fair":
		return 5
	case "poor":
		return 2.5
	}
	return 7
}

func (s *Service) publishStatus(ctx context.Context, sess *Session) {
	s.publishEvent(ctx, sess, ws.EventSessionStatus)
}

func (s *Service) publishEvent(ctx context.Context, sess *Session, eventType string) {
	if s.hub == nil {
		return
	}
	data, _ := json.Marshal(map[string]string{
		"status": string(sess.Status),
		"tier":   string(sess.Tier),
	})
	_ = s.hub.Publish(ctx, ws.Event{
		Type:      eventType,
		Topic:     ws.SessionTopic(sess.ID),
		SessionID: sess.ID.String(),
		Data:      data,
	})
}

func (s *Service) publishSignaling(ctx context.Context, id uuid.UUID) {
	if s.hub == nil {
		return
	}
	_ = s.hub.Publish(ctx, ws.Event{
		Type:      ws.EventSignaling,
		Topic:     ws.SessionTopic(id),
		SessionID: id.String(),
	})
}
