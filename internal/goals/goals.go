// Package goals records the three daily goals and the evening reflection.
package goals

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/mira/internal/model"
)

// RecentDays is the window Recent covers, today included.
const RecentDays = 7

type Rows interface {
	GetDailyGoals(ctx context.Context, userID int64, date string) (*model.DailyGoals, error)
	UpsertDailyGoals(ctx context.Context, g *model.DailyGoals) error
	ListDailyGoalsSince(ctx context.Context, userID int64, since string) ([]model.DailyGoals, error)
	GetDailyReflection(ctx context.Context, userID int64, date string) (*model.DailyReflection, error)
	UpsertDailyReflection(ctx context.Context, r *model.DailyReflection) error
}

// Calendar supplies "today" in the service's zone; *state.Store satisfies it.
type Calendar interface {
	Now() time.Time
	Today() string
}

type Service struct {
	rows Rows
	cal  Calendar
}

func NewService(rows Rows, cal Calendar) *Service {
	return &Service{rows: rows, cal: cal}
}

type GoalsInput struct {
	PersonalGoal     string            `json:"personalGoal"`
	ProfessionalGoal string            `json:"professionalGoal"`
	GrowthGoal       string            `json:"growthGoal"`
	EnergyLevel      model.EnergyLevel `json:"energyLevel"`
	CapacityNote     string            `json:"capacityNote"`
}

type ReflectionInput struct {
	PersonalProgress     string `json:"personalProgress"`
	ProfessionalProgress string `json:"professionalProgress"`
	GrowthProgress       string `json:"growthProgress"`
	VisionLine           string `json:"visionLine"`
	Patterns             string `json:"patterns"`
	Wins                 string `json:"wins"`
	Struggles            string `json:"struggles"`
}

// SetToday writes today's goals, replacing any set earlier today.
func (s *Service) SetToday(ctx context.Context, userID int64, in GoalsInput) (*model.DailyGoals, error) {
	energy := in.EnergyLevel
	if energy == "" {
		energy = model.EnergyMedium
	}
	if !energy.Valid() {
		return nil, model.Invalid("energyLevel", "must be low, medium or high (got %q)", in.EnergyLevel)
	}
	g := &model.DailyGoals{
		UserID:           userID,
		Date:             s.cal.Today(),
		PersonalGoal:     in.PersonalGoal,
		ProfessionalGoal: in.ProfessionalGoal,
		GrowthGoal:       in.GrowthGoal,
		EnergyLevel:      energy,
		CapacityNote:     in.CapacityNote,
	}
	if err := s.rows.UpsertDailyGoals(ctx, g); err != nil {
		return nil, fmt.Errorf("setting today's goals: %w", err)
	}
	return g, nil
}

// GetToday returns today's goals, or nil if none were set.
func (s *Service) GetToday(ctx context.Context, userID int64) (*model.DailyGoals, error) {
	g, err := s.rows.GetDailyGoals(ctx, userID, s.cal.Today())
	if err != nil {
		return nil, fmt.Errorf("getting today's goals: %w", err)
	}
	return g, nil
}

// Recent returns the goals of the last RecentDays days, oldest first.
func (s *Service) Recent(ctx context.Context, userID int64) ([]model.DailyGoals, error) {
	since := s.cal.Now().AddDate(0, 0, -(RecentDays - 1)).Format(model.DateLayout)
	out, err := s.rows.ListDailyGoalsSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("listing recent goals: %w", err)
	}
	if out == nil {
		out = []model.DailyGoals{}
	}
	return out, nil
}

func (s *Service) SetTodayReflection(ctx context.Context, userID int64, in ReflectionInput) (*model.DailyReflection, error) {
	r := &model.DailyReflection{
		UserID:               userID,
		Date:                 s.cal.Today(),
		PersonalProgress:     in.PersonalProgress,
		ProfessionalProgress: in.ProfessionalProgress,
		GrowthProgress:       in.GrowthProgress,
		VisionLine:           in.VisionLine,
		Patterns:             in.Patterns,
		Wins:                 in.Wins,
		Struggles:            in.Struggles,
	}
	if err := s.rows.UpsertDailyReflection(ctx, r); err != nil {
		return nil, fmt.Errorf("setting today's reflection: %w", err)
	}
	return r, nil
}

func (s *Service) GetTodayReflection(ctx context.Context, userID int64) (*model.DailyReflection, error) {
	r, err := s.rows.GetDailyReflection(ctx, userID, s.cal.Today())
	if err != nil {
		return nil, fmt.Errorf("getting today's reflection: %w", err)
	}
	return r, nil
}
