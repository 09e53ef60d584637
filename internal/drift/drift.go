// Package drift detects long absences and picks the re-engagement
// instruction that matches how the user wants to be called out.
package drift

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chris/mira/internal/model"
)

// Threshold is the absence after which a fragment is produced. Exactly 72h is
// not drift.
const Threshold = 72 * time.Hour

type Tier int

const (
	TierNone Tier = iota
	TierAcknowledge
	TierSoft
	TierDirect
)

const (
	fragmentAcknowledge = "\n\n[SYSTEM: User has been away for 3+ days. Warmly say \"Welcome back\" and do not ask why they were gone.]"
	fragmentSoft        = "\n\n[SYSTEM: User has been away for 3+ days. Gently ask: \"Do you want to reset or catch up?\"]"
	fragmentDirect      = "\n\n[SYSTEM: User has been away for 3+ days. Directly ask: \"What happened? Let's talk about it.\"]"
)

// tiers covers both the legacy call-out vocabulary and the one onboarding
// writes. Anything missing falls through to TierDirect.
var tiers = map[model.CallOutPreference]Tier{
	model.CallOutMinimal:       TierAcknowledge,
	model.CallOutUserInitiated: TierAcknowledge,
	model.CallOutSoft:          TierSoft,
	model.CallOutGentle:        TierSoft,
	model.CallOutProactive:     TierDirect,
	model.CallOutAuto:          TierDirect,
}

// TierFor maps a call-out preference to a fragment tier.
func TierFor(pref model.CallOutPreference) Tier {
	if t, ok := tiers[pref]; ok {
		return t
	}
	return TierDirect
}

func (t Tier) Fragment() string {
	switch t {
	case TierAcknowledge:
		return fragmentAcknowledge
	case TierSoft:
		return fragmentSoft
	case TierDirect:
		return fragmentDirect
	}
	return ""
}

// HoursSince is the time since the last interaction in fractional hours.
func HoursSince(state *model.OSState, now time.Time) float64 {
	if state == nil || state.LastInteraction.IsZero() {
		return 0
	}
	return now.Sub(state.LastInteraction).Hours()
}

// Detect returns the instruction fragment for the state, or "" when the user
// has not been away longer than Threshold.
func Detect(state *model.OSState, pref model.CallOutPreference, now time.Time) string {
	if state == nil || state.LastInteraction.IsZero() {
		return ""
	}
	if now.Sub(state.LastInteraction) <= Threshold {
		return ""
	}
	return TierFor(pref).Fragment()
}

// Describe renders the last interaction as "3 days ago" for logs and status
// lines.
func Describe(state *model.OSState, now time.Time) string {
	if state == nil || state.LastInteraction.IsZero() {
		return "never"
	}
	return humanize.RelTime(state.LastInteraction, now, "ago", "from now")
}
