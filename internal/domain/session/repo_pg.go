package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webqx/telehealth/internal/platform/db"
	"github.com/webqx/telehealth/internal/platform/video"
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const sessionCols = `id, clinic_id, room_name, patient_id, provider_id,
	tier, tier_reason, status, scheduled_start, scheduled_end,
	actual_start, actual_end,
	zoom_meeting_id, zoom_password, zoom_join_url,
	webrtc_room_config, jitsi_room_url,
	recording_enabled, connection_quality, technical_issues,
	fallback_attempted, version, created_at, updated_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var roomConfig []byte
	err := row.Scan(
		&s.ID, &s.ClinicID, &s.RoomName, &s.PatientID, &s.ProviderID,
		&s.Tier, &s.TierReason, &s.Status, &s.ScheduledStart, &s.ScheduledEnd,
		&s.ActualStart, &s.ActualEnd,
		&s.ZoomMeetingID, &s.ZoomPassword, &s.ZoomJoinURL,
		&roomConfig, &s.JitsiRoomURL,
		&s.RecordingEnabled, &s.ConnectionQuality, &s.TechnicalIssues,
		&s.FallbackAttempted, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(roomConfig) > 0 {
		var cfg video.RoomConfig
		if err := json.Unmarshal(roomConfig, &cfg); err != nil {
			return nil, fmt.Errorf("decode room config: %w", err)
		}
		s.WebRTCRoomConfig = &cfg
	}
	return &s, nil
}

func marshalRoomConfig(cfg *video.RoomConfig) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	return json.Marshal(cfg)
}

func (r *RepoPG) Create(ctx context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Version = 1

	roomConfig, err := marshalRoomConfig(s.WebRTCRoomConfig)
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO telehealth_session (`+sessionCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		s.ID, s.ClinicID, s.RoomName, s.PatientID, s.ProviderID,
		s.Tier, s.TierReason, s.Status, s.ScheduledStart, s.ScheduledEnd,
		s.ActualStart, s.ActualEnd,
		s.ZoomMeetingID, s.ZoomPassword, s.ZoomJoinURL,
		roomConfig, s.JitsiRoomURL,
		s.RecordingEnabled, s.ConnectionQuality, s.TechnicalIssues,
		s.FallbackAttempted, s.Version, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *RepoPG) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return scanSession(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM telehealth_session WHERE id = $1`, id))
}

func (r *RepoPG) Update(ctx context.Context, s *Session) error {
	roomConfig, err := marshalRoomConfig(s.WebRTCRoomConfig)
	if err != nil {
		return err
	}
	s.UpdatedAt = time.Now().UTC()

	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE telehealth_session SET
			tier = $1, tier_reason = $2, status = $3,
			actual_start = $4, actual_end = $5,
			zoom_meeting_id = $6, zoom_password = $7, zoom_join_url = $8,
			webrtc_room_config = $9, jitsi_room_url = $10,
			recording_enabled = $11, connection_quality = $12, technical_issues = $13,
			fallback_attempted = $14, version = version + 1, updated_at = $15
		WHERE id = $16 AND version = $17`,
		s.Tier, s.TierReason, s.Status,
		s.ActualStart, s.ActualEnd,
		s.ZoomMeetingID, s.ZoomPassword, s.ZoomJoinURL,
		roomConfig, s.JitsiRoomURL,
		s.RecordingEnabled, s.ConnectionQuality, s.TechnicalIssues,
		s.FallbackAttempted, s.UpdatedAt,
		s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	s.Version++
	return nil
}

func (r *RepoPG) List(ctx context.Context, clinicID string, f ListFilter, limit, offset int) ([]*Session, int, error) {
	where := "WHERE clinic_id = $1"
	args := []interface{}{clinicID}
	idx := 2

	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.UserID != "" {
		where += fmt.Sprintf(" AND (patient_id = $%d OR provider_id = $%d)", idx, idx)
		args = append(args, f.UserID)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM telehealth_session "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM telehealth_session %s ORDER BY scheduled_start DESC LIMIT $%d OFFSET $%d",
		sessionCols, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *RepoPG) ListUpcoming(ctx context.Context, userID string, now time.Time, limit int) ([]*Session, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sessionCols+` FROM telehealth_session
		WHERE (patient_id = $1 OR provider_id = $1)
			AND status IN ('scheduled', 'waiting')
			AND scheduled_end >= $2
		ORDER BY scheduled_start ASC
		LIMIT $3`,
		userID, now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *RepoPG) ListMissed(ctx context.Context, now time.Time) ([]*Session, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sessionCols+` FROM telehealth_session
		WHERE status = 'scheduled' AND scheduled_end < $1
		ORDER BY scheduled_end ASC`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const participantCols = `id, session_id, user_id, role, joined_at, left_at,
	connection_id, can_share_screen, can_record, is_moderator, created_at`

func scanParticipant(row pgx.Row) (*Participant, error) {
	var p Participant
	err := row.Scan(
		&p.ID, &p.SessionID, &p.UserID, &p.Role, &p.JoinedAt, &p.LeftAt,
		&p.ConnectionID, &p.CanShareScreen, &p.CanRecord, &p.IsModerator, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotParticipant
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RepoPG) CreateParticipant(ctx context.Context, p *Participant) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO session_participant (`+participantCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.SessionID, p.UserID, p.Role, p.JoinedAt, p.LeftAt,
		p.ConnectionID, p.CanShareScreen, p.CanRecord, p.IsModerator, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *RepoPG) GetParticipant(ctx context.Context, sessionID uuid.UUID, userID string) (*Participant, error) {
	return scanParticipant(r.conn(ctx).QueryRow(ctx,
		`SELECT `+participantCols+` FROM session_participant WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID))
}

func (r *RepoPG) UpdateParticipant(ctx context.Context, p *Participant) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE session_participant SET
			joined_at = $1, left_at = $2, connection_id = $3
		WHERE id = $4`,
		p.JoinedAt, p.LeftAt, p.ConnectionID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	return nil
}

func (r *RepoPG) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*Participant, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+participantCols+` FROM session_participant WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
