package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/mira/internal/db"
	"github.com/chris/mira/internal/model"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T, at time.Time) (*Store, *fixedClock) {
	t.Helper()
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	clock := &fixedClock{t: at}
	return NewStore(d, WithClock(clock.now)), clock
}

func intp(i int) *int { return &i }

func TestGetOrCreate_DefaultsAndIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC))

	first, err := s.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	second, err := s.GetOrCreate(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, model.PhaseFocus, first.Phase)
	assert.Equal(t, 8, first.CapacityScore)
	assert.Empty(t, first.Anchors)
	assert.False(t, first.IsShutdown)
	assert.Equal(t, model.ShutdownNone, first.ShutdownRisk)
	assert.Equal(t, model.EnergyMedium, first.LastEnergyLevel)
	assert.Equal(t, "2026-05-04", first.LastActiveDate)
}

func TestGet_DoesNotCreate(t *testing.T) {
	s, _ := newTestStore(t, time.Now())
	st, err := s.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestApplyUpdate_LowCapacityStreak(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC))

	sequence := []int{2, 3, 1, 6, 3, 2}
	want := []int{1, 2, 3, 0, 1, 2}
	for i, c := range sequence {
		st, err := s.ApplyUpdate(ctx, 1, Update{Capacity: intp(c)})
		require.NoError(t, err)
		assert.Equal(t, want[i], st.LowCapacityStreak, "after update %d (capacity %d)", i, c)
		assert.Equal(t, c, st.CapacityScore)
	}
}

func TestApplyUpdate_FieldGroups(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC)
	s, clock := newTestStore(t, start)

	_, err := s.GetOrCreate(ctx, 1)
	require.NoError(t, err)

	clock.advance(26 * time.Hour)
	vision := "I moved closer by resting"
	shutdown := true
	st, err := s.ApplyUpdate(ctx, 1, Update{
		Anchors:    []string{"ship feature", "call mom"},
		SetAnchors: true,
		VisionLine: &vision,
		IsShutdown: &shutdown,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ship feature", "call mom"}, st.Anchors)
	assert.Equal(t, "2026-05-05", st.LastGoalsDate)
	assert.Equal(t, vision, st.VisionLine)
	assert.Equal(t, "2026-05-05", st.LastReflectionDate)
	assert.Equal(t, "2026-05-05", st.LastActiveDate)
	assert.True(t, st.IsShutdown)
	assert.True(t, st.LastInteraction.Equal(clock.t))
	// Capacity untouched.
	assert.Equal(t, 8, st.CapacityScore)
	assert.Equal(t, 0, st.LowCapacityStreak)
}

func TestApplyUpdate_EmptyUpdateStillTouches(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t, time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC))
	_, err := s.GetOrCreate(ctx, 1)
	require.NoError(t, err)

	clock.advance(time.Hour)
	st, err := s.ApplyUpdate(ctx, 1, Update{})
	require.NoError(t, err)
	assert.True(t, st.LastInteraction.Equal(clock.t))
}

func TestApplyUpdate_PhaseOverrideMarker(t *testing.T) {
	ctx := context.Background()
	// 14:00 UTC is FOCUS on the clock.
	s, _ := newTestStore(t, time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC))

	evening := model.PhaseEvening
	st, err := s.ApplyUpdate(ctx, 1, Update{Phase: &evening})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseEvening, st.Phase)
	assert.Equal(t, model.PhaseFocus, st.PhaseOverride)

	focus := model.PhaseFocus
	st, err = s.ApplyUpdate(ctx, 1, Update{Phase: &focus, FromClock: true})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseFocus, st.Phase)
	assert.Empty(t, st.PhaseOverride)
}

func TestClockPhase_UsesLocator(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 23:00 UTC is 08:00 in JST.
	s, _ := newTestStore(t, time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, model.PhaseEvening, s.ClockPhase(context.Background(), 1))

	s.locator = func(context.Context, int64) *time.Location { return tokyo }
	assert.Equal(t, model.PhaseMorning, s.ClockPhase(context.Background(), 1))
}

func TestTouch(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t, time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC))
	_, err := s.GetOrCreate(ctx, 1)
	require.NoError(t, err)

	clock.advance(3 * time.Hour)
	require.NoError(t, s.Touch(ctx, 1))
	st, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.LastInteraction.Equal(clock.t))

	err = s.Touch(ctx, 404)
	assert.True(t, errors.Is(err, model.ErrNotFoundOrAccessDenied))
}

func TestEnergyFor_AllCapacities(t *testing.T) {
	want := map[int]model.EnergyLevel{
		1: model.EnergyLow, 2: model.EnergyLow, 3: model.EnergyLow,
		4: model.EnergyMedium, 5: model.EnergyMedium, 6: model.EnergyMedium,
		7: model.EnergyHigh, 8: model.EnergyHigh, 9: model.EnergyHigh, 10: model.EnergyHigh,
	}
	for c := 1; c <= 10; c++ {
		assert.Equal(t, want[c], EnergyFor(c), "capacity %d", c)
	}
}

func TestPhaseAt_AllHours(t *testing.T) {
	for h := 0; h < 24; h++ {
		var want model.Phase
		switch {
		case h >= 5 && h < 11:
			want = model.PhaseMorning
		case h >= 20 || h < 4:
			want = model.PhaseEvening
		default:
			want = model.PhaseFocus
		}
		assert.Equal(t, want, PhaseAt(h), "hour %d", h)
	}

	assert.Equal(t, model.PhaseMorning, PhaseAt(6))
	assert.Equal(t, model.PhaseFocus, PhaseAt(14))
	assert.Equal(t, model.PhaseEvening, PhaseAt(23))
	assert.Equal(t, model.PhaseEvening, PhaseAt(3))
	assert.Equal(t, model.PhaseFocus, PhaseAt(4))
	assert.Equal(t, model.PhaseFocus, PhaseAt(11))
}

func TestUpdateValidate(t *testing.T) {
	bad := model.Phase("NIGHT")
	tests := []struct {
		name  string
		u     Update
		field string
	}{
		{"ok", Update{Capacity: intp(5)}, ""},
		{"capacity low", Update{Capacity: intp(0)}, "capacity"},
		{"capacity high", Update{Capacity: intp(11)}, "capacity"},
		{"too many anchors", Update{Anchors: []string{"a", "b", "c", "d"}, SetAnchors: true}, "anchors"},
		{"three anchors", Update{Anchors: []string{"a", "b", "c"}, SetAnchors: true}, ""},
		{"unknown phase", Update{Phase: &bad}, "phase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.u.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
