package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chris/mira/internal/model"
)

// GetDailyGoals returns the goals row for (user, date), or nil.
func (d *DB) GetDailyGoals(ctx context.Context, userID int64, date string) (*model.DailyGoals, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT user_id, date, COALESCE(personal_goal,''),
		COALESCE(professional_goal,''), COALESCE(growth_goal,''), energy_level, COALESCE(capacity_note,'')
		FROM daily_goals WHERE user_id = ? AND date = ? LIMIT 1`, userID, date)
	if err != nil {
		return nil, storageErr("getting daily goals", err)
	}
	defer rows.Close()
	goals, err := scanDailyGoals(rows)
	if err != nil || len(goals) == 0 {
		return nil, err
	}
	return &goals[0], nil
}

// UpsertDailyGoals creates or replaces the goals row for (user, date).
func (d *DB) UpsertDailyGoals(ctx context.Context, g *model.DailyGoals) error {
	energy := g.EnergyLevel
	if energy == "" {
		energy = model.EnergyMedium
	}
	_, err := d.conn.ExecContext(ctx, `INSERT INTO daily_goals
		(user_id, date, personal_goal, professional_goal, growth_goal, energy_level, capacity_note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			personal_goal = excluded.personal_goal,
			professional_goal = excluded.professional_goal,
			growth_goal = excluded.growth_goal,
			energy_level = excluded.energy_level,
			capacity_note = excluded.capacity_note`,
		g.UserID, g.Date, nullStr(g.PersonalGoal), nullStr(g.ProfessionalGoal), nullStr(g.GrowthGoal),
		string(energy), nullStr(g.CapacityNote),
	)
	if err != nil {
		return storageErr("upserting daily goals", err)
	}
	return nil
}

// ListDailyGoalsSince returns a user's goals on or after the given date, oldest first.
func (d *DB) ListDailyGoalsSince(ctx context.Context, userID int64, since string) ([]model.DailyGoals, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT user_id, date, COALESCE(personal_goal,''),
		COALESCE(professional_goal,''), COALESCE(growth_goal,''), energy_level, COALESCE(capacity_note,'')
		FROM daily_goals WHERE user_id = ? AND date >= ? ORDER BY date ASC`, userID, since)
	if err != nil {
		return nil, storageErr("listing daily goals", err)
	}
	defer rows.Close()
	return scanDailyGoals(rows)
}

func scanDailyGoals(rows *sql.Rows) ([]model.DailyGoals, error) {
	var out []model.DailyGoals
	for rows.Next() {
		var g model.DailyGoals
		var energy string
		if err := rows.Scan(&g.UserID, &g.Date, &g.PersonalGoal, &g.ProfessionalGoal, &g.GrowthGoal, &energy, &g.CapacityNote); err != nil {
			return nil, storageErr("scanning daily goals", err)
		}
		g.EnergyLevel = model.EnergyLevel(energy)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("reading daily goals", err)
	}
	return out, nil
}

// GetDailyReflection returns the reflection row for (user, date), or nil.
func (d *DB) GetDailyReflection(ctx context.Context, userID int64, date string) (*model.DailyReflection, error) {
	var r model.DailyReflection
	err := d.conn.QueryRowContext(ctx, `SELECT user_id, date, COALESCE(personal_progress,''),
		COALESCE(professional_progress,''), COALESCE(growth_progress,''), COALESCE(vision_line,''),
		COALESCE(patterns,''), COALESCE(wins,''), COALESCE(struggles,'')
		FROM daily_reflections WHERE user_id = ? AND date = ?`, userID, date).Scan(
		&r.UserID, &r.Date, &r.PersonalProgress, &r.ProfessionalProgress, &r.GrowthProgress,
		&r.VisionLine, &r.Patterns, &r.Wins, &r.Struggles,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting daily reflection", err)
	}
	return &r, nil
}

// UpsertDailyReflection creates or replaces the reflection row for (user, date).
func (d *DB) UpsertDailyReflection(ctx context.Context, r *model.DailyReflection) error {
	_, err := d.conn.ExecContext(ctx, `INSERT INTO daily_reflections
		(user_id, date, personal_progress, professional_progress, growth_progress, vision_line, patterns, wins, struggles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			personal_progress = excluded.personal_progress,
			professional_progress = excluded.professional_progress,
			growth_progress = excluded.growth_progress,
			vision_line = excluded.vision_line,
			patterns = excluded.patterns,
			wins = excluded.wins,
			struggles = excluded.struggles`,
		r.UserID, r.Date, nullStr(r.PersonalProgress), nullStr(r.ProfessionalProgress), nullStr(r.GrowthProgress),
		nullStr(r.VisionLine), nullStr(r.Patterns), nullStr(r.Wins), nullStr(r.Struggles),
	)
	if err != nil {
		return storageErr("upserting daily reflection", err)
	}
	return nil
}
