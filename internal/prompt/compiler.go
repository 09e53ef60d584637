// Package prompt assembles the system prompt for a conversation turn from the
// user's profile, OS state, today's goals and any drift instruction.
package prompt

import (
	"fmt"
	"strings"

	"github.com/chris/mira/internal/model"
)

const (
	lowCapacityMax  = 3
	highCapacityMin = 8
)

// Compiler is pure: the same inputs always produce the same prompt.
type Compiler struct {
	persona string
}

func New(persona string) *Compiler {
	return &Compiler{persona: persona}
}

// Persona returns the base block alone, used for anonymous turns.
func (c *Compiler) Persona() string { return c.persona }

// Compile builds the system prompt. Any of profile, state and goals may be nil;
// with all three nil the result is the persona block alone.
func (c *Compiler) Compile(profile *model.UserProfile, state *model.OSState, goals *model.DailyGoals, drift string) string {
	var b strings.Builder
	b.WriteString(c.persona)

	if profile != nil {
		writeProfile(&b, profile)
	}
	if state != nil {
		writeState(&b, state)
	}
	if goals != nil {
		writeGoals(&b, goals)
	}
	if drift != "" {
		b.WriteString(drift)
	}
	return b.String()
}

// CallOutInstruction turns the stored preference into a directive sentence.
func CallOutInstruction(pref model.CallOutPreference) string {
	if pref == model.CallOutAuto {
		return "Proactively name avoidance patterns"
	}
	return "Wait for the user to initiate difficult conversations"
}

func writeProfile(b *strings.Builder, p *model.UserProfile) {
	b.WriteString("\n\n=== USER PROFILE ===\n")
	fmt.Fprintf(b, "\nFuture self: %q\nEverything you say should honor this vision.\n", p.FutureSelfStatement)

	writeList(b, "Goals", p.Goals)
	writeList(b, "Core values", p.Values)

	if p.TiredPattern != "" {
		fmt.Fprintf(b, "\nPattern they are tired of repeating: %q\nWhen you see it, name it gently and offer a micro-step instead.\n", p.TiredPattern)
	}
	if p.OverwhelmSignals != "" {
		fmt.Fprintf(b, "\nHow overwhelm shows up: %q\nWhen these signals appear, soften and prioritize grounding.\n", p.OverwhelmSignals)
	}
	if p.SpiralTime != "" {
		fmt.Fprintf(b, "\nSpirals usually happen in the %s. Be extra attentive then.\n", p.SpiralTime)
	}

	b.WriteString("\nCommunication preferences:\n")
	fmt.Fprintf(b, "- Style: %s\n", p.CommunicationStyle)
	fmt.Fprintf(b, "- Call-out preference: %s\n", CallOutInstruction(p.CallOutPreference))
	if p.ComfortStyle != "" {
		fmt.Fprintf(b, "- Comfort style: %q\n", p.ComfortStyle)
	}

	if len(p.GroundingMethods) > 0 {
		writeList(b, "Grounding methods that work for them", p.GroundingMethods)
		b.WriteString("Suggest one of these when they are dysregulated.\n")
	}
	if p.GuidanceExample != "" {
		fmt.Fprintf(b, "\nA time they needed better guidance: %q\nUse it to understand the support they wish they had.\n", p.GuidanceExample)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func writeState(b *strings.Builder, s *model.OSState) {
	b.WriteString("\n\n=== CURRENT CONTEXT ===\n")
	fmt.Fprintf(b, "Time Phase: %s\n", s.Phase)
	fmt.Fprintf(b, "User Capacity: %d/10\n", s.CapacityScore)

	switch s.Phase {
	case model.PhaseMorning:
		b.WriteString(morningBlock)
	case model.PhaseEvening:
		b.WriteString(eveningBlock)
	}

	switch {
	case s.CapacityScore <= lowCapacityMax:
		fmt.Fprintf(b, lowCapacityBlock, s.CapacityScore)
	case s.CapacityScore >= highCapacityMin:
		b.WriteString(highCapacityBlock)
	}

	if len(s.Anchors) > 0 {
		fmt.Fprintf(b, "\nTODAY'S ANCHORS: %s\n- Align all responses to these anchors\n", strings.Join(s.Anchors, ", "))
	}
}

func writeGoals(b *strings.Builder, g *model.DailyGoals) {
	b.WriteString("\nTODAY'S GOALS:\n")
	if g.PersonalGoal != "" {
		fmt.Fprintf(b, "- Personal: %s\n", g.PersonalGoal)
	}
	if g.ProfessionalGoal != "" {
		fmt.Fprintf(b, "- Professional: %s\n", g.ProfessionalGoal)
	}
	if g.GrowthGoal != "" {
		fmt.Fprintf(b, "- Growth: %s\n", g.GrowthGoal)
	}
	if g.EnergyLevel != "" {
		fmt.Fprintf(b, "- Energy Level: %s\n", g.EnergyLevel)
	}
	if g.CapacityNote != "" {
		fmt.Fprintf(b, "- Note: %s\n", g.CapacityNote)
	}
}

const (
	morningBlock = `
MODE: MORNING ALIGNMENT
- Goal: help the user define 3 anchors (intentions) for the day
- Style: crisp, awakening, forward-looking
- If anchors are not set, ask for them
`
	eveningBlock = `
MODE: EVENING REFLECTION
- Goal: help the user close loops and release tension
- Style: slower, reflective, warmer
- Ask: "What is one thing you want to release from today?"
`
	lowCapacityBlock = `
CRITICAL: USER IS LOW ENERGY (%d/10)
- Remove all friction
- Use short, gentle sentences
- Do not ask open-ended "why" questions
- Focus on the Smallest Viable Action
`
	highCapacityBlock = `
USER IS HIGH ENERGY
- Be direct and high-tempo
- Push them to align with their highest Future Self
`
)
