package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/webqx/telehealth/internal/domain/analytics"
	"github.com/webqx/telehealth/internal/domain/audit"
	"github.com/webqx/telehealth/internal/domain/entitlement"
	"github.com/webqx/telehealth/internal/domain/policy"
	"github.com/webqx/telehealth/internal/domain/tier"
	"github.com/webqx/telehealth/internal/platform/video"
)

// ---- in-memory collaborators -------------------------------------------

type mockRepo struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]*Session
	participants map[uuid.UUID][]*Participant
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		sessions:     map[uuid.UUID]*Session{},
		participants: map[uuid.UUID][]*Participant{},
	}
}

func (m *mockRepo) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Version = 1
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) Update(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[s.ID]
	if !ok {
		return ErrSessionNotFound
	}
	if stored.Version != s.Version {
		return ErrVersionConflict
	}
	s.Version++
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockRepo) List(ctx context.Context, clinicID string, f ListFilter, limit, offset int) ([]*Session, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.ClinicID != clinicID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.UserID != "" && s.PatientID != f.UserID && s.ProviderID != f.UserID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListUpcoming(ctx context.Context, userID string, now time.Time, limit int) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.sessions {
		if (s.PatientID == userID || s.ProviderID == userID) &&
			(s.Status == StatusScheduled || s.Status == StatusWaiting) &&
			!s.ScheduledEnd.Before(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) ListMissed(ctx context.Context, now time.Time) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.Missed(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) CreateParticipant(ctx context.Context, p *Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.participants[p.SessionID] = append(m.participants[p.SessionID], &cp)
	return nil
}

func (m *mockRepo) GetParticipant(ctx context.Context, sessionID uuid.UUID, userID string) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants[sessionID] {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotParticipant
}

func (m *mockRepo) UpdateParticipant(ctx context.Context, p *Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, stored := range m.participants[p.SessionID] {
		if stored.ID == p.ID {
			cp := *p
			m.participants[p.SessionID][i] = &cp
			return nil
		}
	}
	return ErrNotParticipant
}

func (m *mockRepo) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Participant
	for _, p := range m.participants[sessionID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memPolicyRepo struct {
	mu       sync.Mutex
	policies map[string]*policy.ClinicPolicy
}

func (m *memPolicyRepo) Get(ctx context.Context, clinicID string) (*policy.ClinicPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.policies[clinicID]
	if !ok {
		return nil, policy.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPolicyRepo) GetForUpdate(ctx context.Context, clinicID string) (*policy.ClinicPolicy, error) {
	return m.Get(ctx, clinicID)
}

func (m *memPolicyRepo) Upsert(ctx context.Context, p *policy.ClinicPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.policies[p.ClinicID] = &cp
	return nil
}

type mockRecorder struct {
	mu      sync.Mutex
	entries []*audit.Entry
	err     error
}

func (m *mockRecorder) Record(ctx context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRecorder) byType(t audit.EventType) []*audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

type memAnalyticsRepo struct {
	mu       sync.Mutex
	sessions int
	failures int
}

func (m *memAnalyticsRepo) AddSession(ctx context.Context, clinicID string, day time.Time, t tier.Tier, durationMinutes int, qualityScore float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions++
	return nil
}

func (m *memAnalyticsRepo) AddFailure(ctx context.Context, clinicID string, day time.Time, t tier.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
	return nil
}

func (m *memAnalyticsRepo) ListSince(ctx context.Context, clinicID string, since time.Time) ([]*analytics.UsageBucket, error) {
	return nil, nil
}

type fakeZoom struct {
	fail    bool
	created int
}

func (f *fakeZoom) CreateMeeting(ctx context.Context, req video.MeetingRequest) (*video.Meeting, error) {
	if f.fail {
		return nil, errors.New("zoom unreachable")
	}
	f.created++
	return &video.Meeting{
		MeetingID: fmt.Sprintf("m-%d", f.created),
		Password:  "pw",
		JoinURL:   "https://zoom.example/j/1",
	}, nil
}

func (f *fakeZoom) GetMeetingStatus(ctx context.Context, meetingID string) (string, error) {
	return "waiting", nil
}

type fixedTierSource struct{ tier string }

func (f fixedTierSource) GetSubscriptionTier(ctx context.Context, subjectID string) (string, error) {
	return f.tier, nil
}

// ---- harness ------------------------------------------------------------

type testEnv struct {
	repo      *mockRepo
	rec       *mockRecorder
	analytics *memAnalyticsRepo
	zoom      *fakeZoom
	svc       *Service
	now       time.Time
}

func newEnv(t *testing.T, subTier string, pol *policy.ClinicPolicy) *testEnv {
	t.Helper()

	polRepo := &memPolicyRepo{policies: map[string]*policy.ClinicPolicy{}}
	if pol != nil {
		polRepo.policies[pol.ClinicID] = pol
	}

	ents := entitlement.NewService(fixedTierSource{tier: subTier}, zerolog.Nop())
	rec := &mockRecorder{}
	anRepo := &memAnalyticsRepo{}

	env := &testEnv{
		repo:      newMockRepo(),
		rec:       rec,
		analytics: anRepo,
		zoom:      &fakeZoom{},
		now:       time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
	}

	env.svc = NewService(Deps{
		Repo:         env.repo,
		Policies:     policy.NewService(nil, polRepo, ents, rec, zerolog.Nop()),
		Entitlements: ents,
		Recorder:     rec,
		Analytics:    analytics.NewService(anRepo, zerolog.Nop()),
		Zoom:         env.zoom,
		Jitsi:        video.NewJitsiBuilder("https://meet.example.com"),
		ICE:          video.ICEConfig{STUNServers: []string{"stun:stun.example.com"}},
		Logger:       zerolog.Nop(),
	})
	env.svc.now = func() time.Time { return env.now }
	return env
}

func zoomPolicy(clinicID string) *policy.ClinicPolicy {
	p := policy.Default(clinicID)
	p.DefaultTier = tier.TierZoom
	p.BandwidthDetectionEnabled = false
	return p
}

func (e *testEnv) createSession(t *testing.T, req CreateRequest) *Session {
	t.Helper()
	if req.PatientID == "" {
		req.PatientID = "patient-1"
	}
	if req.ProviderID == "" {
		req.ProviderID = "provider-1"
	}
	if req.ScheduledStart.IsZero() {
		req.ScheduledStart = e.now.Add(5 * time.Minute)
		req.ScheduledEnd = e.now.Add(35 * time.Minute)
	}
	sess, _, err := e.svc.Create(context.Background(), "clinic-1", "provider-1", req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return sess
}

func (e *testEnv) joinBoth(t *testing.T, id uuid.UUID) {
	t.Helper()
	for _, user := range []string{"patient-1", "provider-1"} {
		if _, err := e.svc.Join(context.Background(), id, user); err != nil {
			t.Fatalf("Join(%s): %v", user, err)
		}
	}
}

// ---- scenarios ----------------------------------------------------------

func TestCreate_DefaultWebRTC(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)

	sess := env.createSession(t, CreateRequest{})
	if sess.Tier != tier.TierWebRTC || sess.TierReason != tier.ReasonClinicDefault {
		t.Errorf("tier = %s/%s", sess.Tier, sess.TierReason)
	}
	if sess.Status != StatusScheduled {
		t.Errorf("status = %s", sess.Status)
	}
	if sess.WebRTCRoomConfig == nil || len(sess.WebRTCRoomConfig.ICEServers) == 0 {
		t.Error("webrtc session missing room config")
	}
	if len(env.rec.entries) != 0 {
		t.Errorf("unexpected audit entries: %+v", env.rec.entries)
	}
}

func TestCreate_ZoomWithEntitlement(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionPremium, zoomPolicy("clinic-1"))

	sess := env.createSession(t, CreateRequest{})
	if sess.Tier != tier.TierZoom {
		t.Fatalf("tier = %s", sess.Tier)
	}
	if sess.ZoomMeetingID == "" || sess.ZoomJoinURL == "" {
		t.Errorf("zoom payload missing: %+v", sess)
	}
	if env.zoom.created != 1 {
		t.Errorf("zoom meetings created = %d", env.zoom.created)
	}
}

func TestCreate_EntitlementDeniedForcesWebRTCWithAudit(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionBasic, zoomPolicy("clinic-1"))

	sess := env.createSession(t, CreateRequest{})
	if sess.Tier != tier.TierWebRTC || sess.TierReason != tier.ReasonEntitlementDenied {
		t.Errorf("tier = %s/%s", sess.Tier, sess.TierReason)
	}
	if got := len(env.rec.byType(audit.EventTierFallback)); got != 1 {
		t.Errorf("audit entries = %d, want exactly 1", got)
	}
	if env.zoom.created != 0 {
		t.Error("no zoom meeting should be provisioned")
	}
}

func TestCreate_BandwidthRecommendationFallsBack(t *testing.T) {
	pol := zoomPolicy("clinic-1")
	pol.BandwidthDetectionEnabled = true
	pol.MinBandwidthMbpsForZoom = 2
	env := newEnv(t, entitlement.SubscriptionPremium, pol)

	sess := env.createSession(t, CreateRequest{
		Bandwidth: &tier.Measurement{UploadMbps: 0.4, DownloadMbps: 0.8},
	})
	if sess.Tier != tier.TierWebRTC || sess.TierReason != tier.ReasonBandwidthRecommendation {
		t.Errorf("tier = %s/%s", sess.Tier, sess.TierReason)
	}
}

func TestCreate_ZoomProvisioningFailureFallsBack(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionPremium, zoomPolicy("clinic-1"))
	env.zoom.fail = true

	sess := env.createSession(t, CreateRequest{})
	if sess.Tier != tier.TierWebRTC || sess.TierReason != tier.ReasonPriorTierFailure {
		t.Errorf("tier = %s/%s", sess.Tier, sess.TierReason)
	}
	if !sess.FallbackAttempted {
		t.Error("fallback budget should be spent")
	}
	if got := len(env.rec.byType(audit.EventTierFallback)); got != 1 {
		t.Errorf("fallback audit entries = %d", got)
	}
}

func TestCreate_ZoomProvisioningFailureWithoutFallback(t *testing.T) {
	pol := zoomPolicy("clinic-1")
	pol.AllowFallbackToWebRTC = false
	env := newEnv(t, entitlement.SubscriptionPremium, pol)
	env.zoom.fail = true

	_, _, err := env.svc.Create(context.Background(), "clinic-1", "provider-1", CreateRequest{
		PatientID:      "patient-1",
		ProviderID:     "provider-1",
		ScheduledStart: env.now.Add(5 * time.Minute),
		ScheduledEnd:   env.now.Add(35 * time.Minute),
	})
	if !errors.Is(err, ErrTransportFailure) {
		t.Fatalf("err = %v, want ErrTransportFailure", err)
	}
}

func TestJoin_ZoomActivatesWhenBothPresent(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionPremium, zoomPolicy("clinic-1"))
	sess := env.createSession(t, CreateRequest{})

	info, err := env.svc.Join(context.Background(), sess.ID, "patient-1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if info.Status != StatusWaiting {
		t.Errorf("after first join status = %s", info.Status)
	}
	if info.JoinURL == "" || info.MeetingID == "" {
		t.Errorf("zoom join info missing: %+v", info)
	}

	info, err = env.svc.Join(context.Background(), sess.ID, "provider-1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if info.Status != StatusActive {
		t.Errorf("after both joined status = %s", info.Status)
	}
	if !info.Permissions.IsModerator {
		t.Error("provider should be moderator")
	}
}

func TestJoin_WebRTCWaitsForNegotiation(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)
	sess := env.createSession(t, CreateRequest{})
	env.joinBoth(t, sess.ID)

	cur, _ := env.repo.Get(context.Background(), sess.ID)
	if cur.Status != StatusWaiting {
		t.Fatalf("status before negotiation = %s", cur.Status)
	}

	ctx := context.Background()
	if err := env.svc.SignalOffer(ctx, sess.ID, "provider-1", payload("offer")); err != nil {
		t.Fatalf("SignalOffer: %v", err)
	}
	if err := env.svc.SignalAnswer(ctx, sess.ID, "patient-1", payload("answer")); err != nil {
		t.Fatalf("SignalAnswer: %v", err)
	}

	cur, _ = env.repo.Get(ctx, sess.ID)
	if cur.Status != StatusActive {
		t.Errorf("status after negotiation = %s", cur.Status)
	}
	if cur.ActualStart == nil {
		t.Error("actual start not set")
	}
}

func TestJoin_OutsideWindow(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)
	sess := env.createSession(t, CreateRequest{
		PatientID:      "patient-1",
		ProviderID:     "provider-1",
		ScheduledStart: env.now.Add(time.Hour),
		ScheduledEnd:   env.now.Add(2 * time.Hour),
	})

	if _, err := env.svc.Join(context.Background(), sess.ID, "patient-1"); !errors.Is(err, ErrJoinWindowClosed) {
		t.Fatalf("err = %v, want ErrJoinWindowClosed", err)
	}
}

func TestJoin_NonParticipantRejected(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)
	sess := env.createSession(t, CreateRequest{})

	if _, err := env.svc.Join(context.Background(), sess.ID, "stranger"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("err = %v, want ErrNotParticipant", err)
	}
}

func TestLeave_EndsActiveSessionIdempotently(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionPremium, zoomPolicy("clinic-1"))
	sess := env.createSession(t, CreateRequest{})
	env.joinBoth(t, sess.ID)

	got, err := env.svc.Leave(context.Background(), sess.ID, "patient-1")
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("status = %s", got.Status)
	}
	if env.analytics.sessions != 1 {
		t.Errorf("analytics sessions = %d", env.analytics.sessions)
	}

	// Second leave is a no-op success with no duplicate analytics.
	got, err = env.svc.Leave(context.Background(), sess.ID, "provider-1")
	if err != nil {
		t.Fatalf("second Leave: %v", err)
	}
	if got.Status != StatusEnded {
		t.Errorf("second leave status = %s", got.Status)
	}
	if env.analytics.sessions != 1 {
		t.Errorf("analytics sessions after second leave = %d", env.analytics.sessions)
	}
}

func TestLeave_ConcurrentCallsProduceOneTransition(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionPremium, zoomPolicy("clinic-1"))
	sess := env.createSession(t, CreateRequest{})
	env.joinBoth(t, sess.ID)

	var wg sync.WaitGroup
	for _, user := range []string{"patient-1", "provider-1"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if _, err := env.svc.Leave(context.Background(), sess.ID, u); err != nil {
				t.Errorf("Leave(%s): %v", u, err)
			}
		}(user)
	}
	wg.Wait()

	cur, _ := env.repo.Get(context.Background(), sess.ID)
	if cur.Status != StatusEnded {
		t.Errorf("status = %s", cur.Status)
	}
	if env.analytics.sessions != 1 {
		t.Errorf("analytics sessions = %d, want exactly 1", env.analytics.sessions)
	}
}

func TestLeave_BeforeActiveCancels(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)
	sess := env.createSession(t, CreateRequest{})

	if _, err := env.svc.Join(context.Background(), sess.ID, "patient-1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	got, err := env.svc.Leave(context.Background(), sess.ID, "patient-1")
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s", got.Status)
	}
}

func TestSignaling_TerminalSessionLooksAbsent(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)
	sess := env.createSession(t, CreateRequest{})
	env.joinBoth(t, sess.ID)

	if _, err := env.svc.Leave(context.Background(), sess.ID, "patient-1"); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	err := env.svc.SignalOffer(context.Background(), sess.ID, "provider-1", payload("late offer"))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestTransportFailure_OneShotFallbackThenFail(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionPremium, zoomPolicy("clinic-1"))
	sess := env.createSession(t, CreateRequest{})
	env.joinBoth(t, sess.ID)

	// First failure: demoted to webrtc, renegotiating.
	got, err := env.svc.ReportTransportFailure(context.Background(), sess.ID, "provider-1", "zoom join failed")
	if err != nil {
		t.Fatalf("ReportTransportFailure: %v", err)
	}
	if got.Tier != tier.TierWebRTC || got.Status != StatusWaiting {
		t.Fatalf("after fallback: tier=%s status=%s", got.Tier, got.Status)
	}
	if !got.FallbackAttempted {
		t.Error("fallback budget not marked spent")
	}
	if got.WebRTCRoomConfig == nil || got.ZoomMeetingID != "" {
		t.Error("platform payload not rebuilt for webrtc")
	}
	if len(env.rec.byType(audit.EventTierFallback)) != 1 {
		t.Error("fallback not audited")
	}
	if env.analytics.failures != 1 {
		t.Errorf("failure count = %d", env.analytics.failures)
	}

	// Second failure is terminal.
	got, err = env.svc.ReportTransportFailure(context.Background(), sess.ID, "provider-1", "ice negotiation timeout")
	if err != nil {
		t.Fatalf("second ReportTransportFailure: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if len(env.rec.byType(audit.EventSessionFailure)) != 1 {
		t.Error("terminal failure not audited")
	}
	if got.TechnicalIssues == "" {
		t.Error("technical issues not retained")
	}
}

func TestTransportFailure_NoFallbackWhenDisabled(t *testing.T) {
	pol := zoomPolicy("clinic-1")
	pol.AllowFallbackToWebRTC = false
	env := newEnv(t, entitlement.SubscriptionPremium, pol)
	sess := env.createSession(t, CreateRequest{})
	env.joinBoth(t, sess.ID)

	got, err := env.svc.ReportTransportFailure(context.Background(), sess.ID, "provider-1", "zoom outage")
	if err != nil {
		t.Fatalf("ReportTransportFailure: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
}

func TestCancel(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)
	sess := env.createSession(t, CreateRequest{})

	got, err := env.svc.Cancel(context.Background(), sess.ID, "patient-1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s", got.Status)
	}

	// Idempotent.
	if _, err := env.svc.Cancel(context.Background(), sess.ID, "patient-1"); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}

	// Cancelling past scheduled is rejected.
	sess2 := env.createSession(t, CreateRequest{PatientID: "patient-2", ProviderID: "provider-2"})
	if _, err := env.svc.Join(context.Background(), sess2.ID, "patient-2"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := env.svc.Cancel(context.Background(), sess2.ID, "patient-2"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSweepMissed(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)
	sess := env.createSession(t, CreateRequest{})

	// Slot passes with nobody joining.
	env.now = env.now.Add(2 * time.Hour)

	n, err := env.svc.SweepMissed(context.Background())
	if err != nil {
		t.Fatalf("SweepMissed: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept = %d", n)
	}

	cur, _ := env.repo.Get(context.Background(), sess.ID)
	if cur.Status != StatusFailed {
		t.Errorf("status = %s", cur.Status)
	}
	if len(env.rec.byType(audit.EventSessionFailure)) != 1 {
		t.Error("missed session not audited")
	}

	// Second sweep finds nothing.
	if n, _ := env.svc.SweepMissed(context.Background()); n != 0 {
		t.Errorf("second sweep = %d", n)
	}
}

func TestJitsiPreference(t *testing.T) {
	env := newEnv(t, entitlement.SubscriptionFree, nil)

	jitsi := tier.TierJitsi
	sess := env.createSession(t, CreateRequest{TierPreference: &jitsi})
	if sess.Tier != tier.TierJitsi || sess.TierReason != tier.ReasonPatientOverride {
		t.Fatalf("tier = %s/%s", sess.Tier, sess.TierReason)
	}
	if sess.JitsiRoomURL == "" {
		t.Error("jitsi room url missing")
	}

	info, err := env.svc.Join(context.Background(), sess.ID, "patient-1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if info.JoinURL == "" {
		t.Error("jitsi join url missing")
	}
}
