// Package state owns the per-user OS state: phase, capacity, anchors and the
// bookkeeping that every mutation carries.
package state

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/mira/internal/model"
)

const (
	DefaultCapacity = 8
	MaxAnchors      = 3
	lowCapacityMax  = 3
	highCapacityMin = 7
)

// Rows is the slice of the row store the state store needs.
type Rows interface {
	GetOSState(ctx context.Context, userID int64) (*model.OSState, error)
	InsertOSState(ctx context.Context, s *model.OSState) error
	UpdateOSState(ctx context.Context, userID int64, p model.OSStatePatch) error
}

type Store struct {
	rows    Rows
	now     func() time.Time
	loc     *time.Location
	locator Locator
}

// Locator resolves a user's own time zone. A nil result falls back to the
// store's location.
type Locator func(ctx context.Context, userID int64) *time.Location

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone used to derive calendar dates and clock phases.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLocator sets the per-user zone lookup used for clock phases.
func WithLocator(l Locator) Option {
	return func(s *Store) { s.locator = l }
}

func NewStore(rows Rows, opts ...Option) *Store {
	s := &Store{rows: rows, now: time.Now, loc: time.UTC}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now returns the store's clock reading in its location.
func (s *Store) Now() time.Time { return s.now().In(s.loc) }

// ClockPhase is the phase the wall clock implies for the user right now.
func (s *Store) ClockPhase(ctx context.Context, userID int64) model.Phase {
	loc := s.loc
	if s.locator != nil {
		if l := s.locator(ctx, userID); l != nil {
			loc = l
		}
	}
	return PhaseAt(s.now().In(loc).Hour())
}

// Today is the current calendar date in the store's location.
func (s *Store) Today() string { return s.Now().Format(model.DateLayout) }

// Update is a partial state change. Nil fields are not touched.
type Update struct {
	Phase      *model.Phase
	Capacity   *int
	Anchors    []string
	SetAnchors bool
	VisionLine *string
	IsShutdown *bool

	// FromClock marks a phase write issued by the synchronizer rather than
	// the user. User writes record an override; clock writes clear it.
	FromClock bool
}

// Validate checks the request-level constraints. Store methods do not call it.
func (u Update) Validate() error {
	if u.Phase != nil && !u.Phase.Valid() {
		return model.Invalid("phase", "must be one of MORNING, FOCUS, EVENING (got %q)", *u.Phase)
	}
	if u.Capacity != nil && (*u.Capacity < 1 || *u.Capacity > 10) {
		return model.Invalid("capacity", "must be between 1 and 10 (got %d)", *u.Capacity)
	}
	if u.SetAnchors && len(u.Anchors) > MaxAnchors {
		return model.Invalid("anchors", "at most %d anchors allowed (got %d)", MaxAnchors, len(u.Anchors))
	}
	return nil
}

// Default is the state a user starts with.
func Default(userID int64, now time.Time, today string) *model.OSState {
	return &model.OSState{
		UserID:          userID,
		Phase:           model.PhaseFocus,
		CapacityScore:   DefaultCapacity,
		ShutdownRisk:    model.ShutdownNone,
		Anchors:         []string{},
		LastInteraction: now,
		LastActiveDate:  today,
		LastEnergyLevel: model.EnergyMedium,
	}
}

// Get returns the stored state without creating one.
func (s *Store) Get(ctx context.Context, userID int64) (*model.OSState, error) {
	st, err := s.rows.GetOSState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading state for user %d: %w", userID, err)
	}
	return st, nil
}

// GetOrCreate returns the user's state, inserting the default row on first
// access. A concurrent creator loses on the unique user_id and re-reads.
func (s *Store) GetOrCreate(ctx context.Context, userID int64) (*model.OSState, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		return st, nil
	}
	if err := s.rows.InsertOSState(ctx, Default(userID, s.now(), s.Today())); err != nil {
		return nil, fmt.Errorf("creating state for user %d: %w", userID, err)
	}
	st, err = s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("state for user %d missing after insert: %w", userID, model.ErrStorageUnavailable)
	}
	return st, nil
}

// ApplyUpdate applies a partial update and returns the state as stored
// afterwards. Every call stamps lastInteraction and lastActiveDate.
func (s *Store) ApplyUpdate(ctx context.Context, userID int64, u Update) (*model.OSState, error) {
	current, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := s.Today()
	patch := model.OSStatePatch{
		LastInteraction: &now,
		LastActiveDate:  &today,
	}

	if u.Capacity != nil {
		capacity := *u.Capacity
		streak := NextLowStreak(current.LowCapacityStreak, capacity)
		energy := EnergyFor(capacity)
		patch.CapacityScore = &capacity
		patch.LowCapacityStreak = &streak
		patch.LastEnergyLevel = &energy
	}
	if u.SetAnchors {
		anchors := u.Anchors
		if anchors == nil {
			anchors = []string{}
		}
		patch.Anchors = &anchors
		patch.LastGoalsDate = &today
	}
	if u.VisionLine != nil {
		patch.VisionLine = u.VisionLine
		patch.LastReflectionDate = &today
	}
	if u.Phase != nil {
		patch.Phase = u.Phase
		override := model.Phase("")
		if !u.FromClock {
			override = s.ClockPhase(ctx, userID)
		}
		patch.PhaseOverride = &override
	}
	if u.IsShutdown != nil {
		patch.IsShutdown = u.IsShutdown
	}

	if err := s.rows.UpdateOSState(ctx, userID, patch); err != nil {
		return nil, fmt.Errorf("updating state for user %d: %w", userID, err)
	}
	return s.GetOrCreate(ctx, userID)
}

// Touch stamps lastInteraction without changing anything else.
func (s *Store) Touch(ctx context.Context, userID int64) error {
	now := s.now()
	if err := s.rows.UpdateOSState(ctx, userID, model.OSStatePatch{LastInteraction: &now}); err != nil {
		return fmt.Errorf("touching state for user %d: %w", userID, err)
	}
	return nil
}

// EnergyFor derives the energy tier from a capacity score.
func EnergyFor(capacity int) model.EnergyLevel {
	switch {
	case capacity <= lowCapacityMax:
		return model.EnergyLow
	case capacity >= highCapacityMin:
		return model.EnergyHigh
	default:
		return model.EnergyMedium
	}
}

// NextLowStreak extends the run of low-capacity updates or resets it.
func NextLowStreak(prev, capacity int) int {
	if capacity <= lowCapacityMax {
		return prev + 1
	}
	return 0
}

// PhaseAt maps a local hour of day to the phase the clock implies.
func PhaseAt(hour int) model.Phase {
	switch {
	case hour >= 5 && hour < 11:
		return model.PhaseMorning
	case hour >= 20 || hour < 4:
		return model.PhaseEvening
	default:
		return model.PhaseFocus
	}
}
