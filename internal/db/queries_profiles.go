package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chris/mira/internal/model"
)

// GetUserProfile returns the profile for a user, or nil if onboarding never ran.
func (d *DB) GetUserProfile(ctx context.Context, userID int64) (*model.UserProfile, error) {
	var p model.UserProfile
	var goals, values, grounding string
	var spiral, style, callOut, guidance string
	err := d.conn.QueryRowContext(ctx, `SELECT user_id, future_self, goals, core_values, tired_pattern,
		overwhelm_signals, spiral_time, communication_style, call_out_preference, comfort_style,
		grounding_methods, COALESCE(guidance_example,''), timezone, COALESCE(quiz_data,'')
		FROM user_profiles WHERE user_id = ?`, userID).Scan(
		&p.UserID, &p.FutureSelfStatement, &goals, &values, &p.TiredPattern,
		&p.OverwhelmSignals, &spiral, &style, &callOut, &p.ComfortStyle,
		&grounding, &guidance, &p.Timezone, &p.QuizData,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting user profile", err)
	}
	p.Goals = decodeList(goals)
	p.Values = decodeList(values)
	p.GroundingMethods = decodeList(grounding)
	p.SpiralTime = model.SpiralTime(spiral)
	p.CommunicationStyle = model.CommunicationStyle(style)
	p.CallOutPreference = model.CallOutPreference(callOut)
	p.GuidanceExample = guidance
	return &p, nil
}

// UpsertUserProfile inserts or overwrites the profile keyed by user_id.
func (d *DB) UpsertUserProfile(ctx context.Context, p *model.UserProfile) error {
	tz := p.Timezone
	if tz == "" {
		tz = "UTC"
	}
	_, err := d.conn.ExecContext(ctx, `INSERT INTO user_profiles
		(user_id, future_self, goals, core_values, tired_pattern, overwhelm_signals, spiral_time,
		 communication_style, call_out_preference, comfort_style, grounding_methods, guidance_example,
		 timezone, quiz_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			future_self = excluded.future_self,
			goals = excluded.goals,
			core_values = excluded.core_values,
			tired_pattern = excluded.tired_pattern,
			overwhelm_signals = excluded.overwhelm_signals,
			spiral_time = excluded.spiral_time,
			communication_style = excluded.communication_style,
			call_out_preference = excluded.call_out_preference,
			comfort_style = excluded.comfort_style,
			grounding_methods = excluded.grounding_methods,
			guidance_example = excluded.guidance_example,
			timezone = excluded.timezone,
			quiz_data = excluded.quiz_data,
			updated_at = datetime('now')`,
		p.UserID, p.FutureSelfStatement, encodeList(p.Goals), encodeList(p.Values), p.TiredPattern,
		p.OverwhelmSignals, string(p.SpiralTime), string(p.CommunicationStyle), string(p.CallOutPreference),
		p.ComfortStyle, encodeList(p.GroundingMethods), nullStr(p.GuidanceExample), tz, nullStr(p.QuizData),
	)
	if err != nil {
		return storageErr("upserting user profile", err)
	}
	return nil
}
