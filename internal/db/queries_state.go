package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chris/mira/internal/model"
)

const stateColumns = `user_id, current_phase, capacity_score, is_shutdown, shutdown_risk,
	COALESCE(morning_anchors,'[]'), COALESCE(vision_line,''), COALESCE(last_active_date,''),
	COALESCE(last_goals_date,''), COALESCE(last_reflection_date,''), last_interaction,
	low_capacity_streak, last_energy_level, COALESCE(phase_override,'')`

// GetOSState returns the state row for a user, or nil if none exists.
func (d *DB) GetOSState(ctx context.Context, userID int64) (*model.OSState, error) {
	row := d.conn.QueryRowContext(ctx, "SELECT "+stateColumns+" FROM user_state WHERE user_id = ?", userID)
	var (
		s           model.OSState
		phase       string
		shutdown    int
		risk        string
		anchorsJSON string
		lastAt      string
		energy      string
		override    string
	)
	err := row.Scan(&s.UserID, &phase, &s.CapacityScore, &shutdown, &risk, &anchorsJSON, &s.VisionLine,
		&s.LastActiveDate, &s.LastGoalsDate, &s.LastReflectionDate, &lastAt, &s.LowCapacityStreak, &energy, &override)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting os state", err)
	}
	s.Phase = model.Phase(phase)
	s.IsShutdown = shutdown == 1
	s.ShutdownRisk = model.ShutdownRisk(risk)
	s.Anchors = decodeList(anchorsJSON)
	s.LastEnergyLevel = model.EnergyLevel(energy)
	s.PhaseOverride = model.Phase(override)
	if t, err := time.Parse(time.RFC3339Nano, lastAt); err == nil {
		s.LastInteraction = t
	}
	return &s, nil
}

// InsertOSState inserts a state row. A row that already exists for the user
// wins; the insert becomes a no-op and the caller re-reads.
func (d *DB) InsertOSState(ctx context.Context, s *model.OSState) error {
	_, err := d.conn.ExecContext(ctx, `INSERT INTO user_state
		(user_id, current_phase, capacity_score, is_shutdown, shutdown_risk, morning_anchors, vision_line,
		 last_active_date, last_interaction, low_capacity_streak, last_energy_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		s.UserID, string(s.Phase), s.CapacityScore, boolInt(s.IsShutdown), string(s.ShutdownRisk),
		encodeList(s.Anchors), nullStr(s.VisionLine), nullStr(s.LastActiveDate),
		formatTime(s.LastInteraction), s.LowCapacityStreak, string(s.LastEnergyLevel),
	)
	if err != nil {
		return storageErr("inserting os state", err)
	}
	return nil
}

// UpdateOSState writes the non-nil fields of the patch.
func (d *DB) UpdateOSState(ctx context.Context, userID int64, p model.OSStatePatch) error {
	fields := make(map[string]any)
	if p.Phase != nil {
		fields["current_phase"] = string(*p.Phase)
	}
	if p.CapacityScore != nil {
		fields["capacity_score"] = *p.CapacityScore
	}
	if p.IsShutdown != nil {
		fields["is_shutdown"] = boolInt(*p.IsShutdown)
	}
	if p.Anchors != nil {
		fields["morning_anchors"] = encodeList(*p.Anchors)
	}
	if p.VisionLine != nil {
		fields["vision_line"] = *p.VisionLine
	}
	if p.LastInteraction != nil {
		fields["last_interaction"] = formatTime(*p.LastInteraction)
	}
	if p.LastActiveDate != nil {
		fields["last_active_date"] = *p.LastActiveDate
	}
	if p.LastGoalsDate != nil {
		fields["last_goals_date"] = *p.LastGoalsDate
	}
	if p.LastReflectionDate != nil {
		fields["last_reflection_date"] = *p.LastReflectionDate
	}
	if p.LowCapacityStreak != nil {
		fields["low_capacity_streak"] = *p.LowCapacityStreak
	}
	if p.LastEnergyLevel != nil {
		fields["last_energy_level"] = string(*p.LastEnergyLevel)
	}
	if p.PhaseOverride != nil {
		fields["phase_override"] = nullStr(string(*p.PhaseOverride))
	}
	if err := d.updateRow(ctx, "user_state", "user_id", userID, fields); err != nil {
		return fmt.Errorf("updating os state: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
