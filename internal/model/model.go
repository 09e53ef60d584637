// Package model holds the domain types shared by the state store, the prompt
// compiler and the conversation orchestrator. Storage encodings (JSON columns,
// integer booleans) never leak into these types.
package model

import "time"

type Phase string

const (
	PhaseMorning Phase = "MORNING"
	PhaseFocus   Phase = "FOCUS"
	PhaseEvening Phase = "EVENING"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseMorning, PhaseFocus, PhaseEvening:
		return true
	}
	return false
}

type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

func (e EnergyLevel) Valid() bool {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	}
	return false
}

type ShutdownRisk string

const (
	ShutdownNone      ShutdownRisk = "none"
	ShutdownSuspected ShutdownRisk = "suspected"
	ShutdownActive    ShutdownRisk = "active"
)

type CommunicationStyle string

const (
	StyleGentle   CommunicationStyle = "gentle"
	StyleWarm     CommunicationStyle = "warm"
	StyleDirect   CommunicationStyle = "direct"
	StyleAdaptive CommunicationStyle = "adaptive"
)

type CallOutPreference string

const (
	CallOutUserInitiated CallOutPreference = "user-initiated"
	CallOutGentle        CallOutPreference = "gentle"
	CallOutProactive     CallOutPreference = "proactive"
	CallOutAuto          CallOutPreference = "auto"

	// Legacy values only ever read by the drift detector.
	CallOutMinimal CallOutPreference = "minimal"
	CallOutSoft    CallOutPreference = "soft"
)

type SpiralTime string

const (
	SpiralMorning   SpiralTime = "morning"
	SpiralAfternoon SpiralTime = "afternoon"
	SpiralEvening   SpiralTime = "evening"
	SpiralNight     SpiralTime = "night"
)

// UserProfile is the long-lived personalization record written at onboarding.
type UserProfile struct {
	UserID              int64              `json:"user_id"`
	FutureSelfStatement string             `json:"future_self"`
	Goals               []string           `json:"goals"`
	Values              []string           `json:"values"`
	TiredPattern        string             `json:"tired_pattern"`
	OverwhelmSignals    string             `json:"overwhelm_signals"`
	SpiralTime          SpiralTime         `json:"spiral_time"`
	CommunicationStyle  CommunicationStyle `json:"communication_style"`
	CallOutPreference   CallOutPreference  `json:"call_out_preference"`
	ComfortStyle        string             `json:"comfort_style"`
	GroundingMethods    []string           `json:"grounding_methods"`
	GuidanceExample     string             `json:"guidance_example,omitempty"`
	Timezone            string             `json:"timezone"`
	QuizData            string             `json:"-"`
}

// OnboardingComplete reports whether the profile carries a future-self statement.
func (p *UserProfile) OnboardingComplete() bool {
	return p != nil && p.FutureSelfStatement != ""
}

// OSState is the short-lived behavioral state: one row per user.
type OSState struct {
	UserID             int64        `json:"user_id"`
	Phase              Phase        `json:"phase"`
	CapacityScore      int          `json:"capacity_score"`
	IsShutdown         bool         `json:"is_shutdown"`
	ShutdownRisk       ShutdownRisk `json:"shutdown_risk"`
	Anchors            []string     `json:"anchors"`
	VisionLine         string       `json:"vision_line,omitempty"`
	LastInteraction    time.Time    `json:"last_interaction"`
	LastActiveDate     string       `json:"last_active_date,omitempty"`
	LastGoalsDate      string       `json:"last_goals_date,omitempty"`
	LastReflectionDate string       `json:"last_reflection_date,omitempty"`
	LowCapacityStreak  int          `json:"low_capacity_streak"`
	LastEnergyLevel    EnergyLevel  `json:"last_energy_level"`
	// PhaseOverride is the clock phase observed when the user last set the
	// phase by hand. Empty when the phase follows the clock.
	PhaseOverride Phase `json:"phase_override,omitempty"`
}

// OSStatePatch lists the columns to change; nil fields are left untouched.
type OSStatePatch struct {
	Phase              *Phase
	CapacityScore      *int
	IsShutdown         *bool
	Anchors            *[]string
	VisionLine         *string
	LastInteraction    *time.Time
	LastActiveDate     *string
	LastGoalsDate      *string
	LastReflectionDate *string
	LowCapacityStreak  *int
	LastEnergyLevel    *EnergyLevel
	PhaseOverride      *Phase
}

// DailyGoals is keyed by (user, date).
type DailyGoals struct {
	UserID           int64       `json:"user_id"`
	Date             string      `json:"date"`
	PersonalGoal     string      `json:"personal_goal,omitempty"`
	ProfessionalGoal string      `json:"professional_goal,omitempty"`
	GrowthGoal       string      `json:"growth_goal,omitempty"`
	EnergyLevel      EnergyLevel `json:"energy_level"`
	CapacityNote     string      `json:"capacity_note,omitempty"`
}

type DailyReflection struct {
	UserID               int64  `json:"user_id"`
	Date                 string `json:"date"`
	PersonalProgress     string `json:"personal_progress,omitempty"`
	ProfessionalProgress string `json:"professional_progress,omitempty"`
	GrowthProgress       string `json:"growth_progress,omitempty"`
	VisionLine           string `json:"vision_line,omitempty"`
	Patterns             string `json:"patterns,omitempty"`
	Wins                 string `json:"wins,omitempty"`
	Struggles            string `json:"struggles,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ChatReply struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type VoiceReply struct {
	Transcript string `json:"transcript"`
	Message    string `json:"message"`
	AudioURL   string `json:"audioUrl,omitempty"`
}

type Conversation struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Title     string `json:"title,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ConversationMessage struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	Role           Role   `json:"role"`
	Content        string `json:"content"`
	AudioURL       string `json:"audio_url,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// DateLayout is the calendar-date format used for every *Date field.
const DateLayout = "2006-01-02"
