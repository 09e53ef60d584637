package drift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chris/mira/internal/model"
)

func stateAt(t time.Time) *model.OSState {
	return &model.OSState{LastInteraction: t}
}

func TestDetect_ThresholdBoundary(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	exactly := stateAt(now.Add(-72 * time.Hour))
	assert.InDelta(t, 72.0, HoursSince(exactly, now), 1e-9)
	assert.Empty(t, Detect(exactly, model.CallOutAuto, now))

	past := stateAt(now.Add(-time.Duration(72.1 * float64(time.Hour))))
	assert.InDelta(t, 72.1, HoursSince(past, now), 1e-6)
	assert.NotEmpty(t, Detect(past, model.CallOutAuto, now))

	recent := stateAt(now.Add(-2 * time.Hour))
	assert.Empty(t, Detect(recent, model.CallOutMinimal, now))
}

func TestDetect_FragmentByPreference(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	away := stateAt(now.Add(-100 * time.Hour))

	tests := []struct {
		pref model.CallOutPreference
		want string
	}{
		{model.CallOutMinimal, fragmentAcknowledge},
		{model.CallOutUserInitiated, fragmentAcknowledge},
		{model.CallOutSoft, fragmentSoft},
		{model.CallOutGentle, fragmentSoft},
		{model.CallOutProactive, fragmentDirect},
		{model.CallOutAuto, fragmentDirect},
		{"", fragmentDirect},
		{"something-else", fragmentDirect},
	}
	for _, tt := range tests {
		t.Run(string(tt.pref), func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(away, tt.pref, now))
		})
	}

	assert.Contains(t, fragmentAcknowledge, "Welcome back")
	assert.NotContains(t, fragmentAcknowledge, "What happened")
	assert.Contains(t, fragmentSoft, "reset or catch up")
	assert.Contains(t, fragmentDirect, "What happened")
}

func TestDetect_NoState(t *testing.T) {
	now := time.Now()
	assert.Empty(t, Detect(nil, model.CallOutAuto, now))
	assert.Empty(t, Detect(&model.OSState{}, model.CallOutAuto, now))
	assert.Zero(t, HoursSince(nil, now))
}

func TestDescribe(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "never", Describe(nil, now))
	assert.Equal(t, "3 days ago", Describe(stateAt(now.Add(-72*time.Hour)), now))
}
