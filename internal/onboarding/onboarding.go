// Package onboarding turns the first-run quiz into a stored user profile.
package onboarding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/chris/mira/internal/model"
)

const (
	defaultTiredPattern     = "Not yet identified"
	defaultOverwhelmSignals = "To be discovered through use"
	defaultComfortStyle     = "Gentle support and understanding"
)

// Answers are the raw quiz responses.
type Answers struct {
	WhatsWorking       string   `json:"whatsWorking"`
	CurrentSelf        string   `json:"currentSelf"`
	FutureSelf         string   `json:"futureSelf"`
	SupportNeeds       []string `json:"supportNeeds"`
	TonePreference     string   `json:"tonePreference"`
	ShutdownPreference string   `json:"shutdownPreference"`
	Pattern            *string  `json:"pattern"`
	Timezone           string   `json:"timezone,omitempty"`
}

type Rows interface {
	GetUserProfile(ctx context.Context, userID int64) (*model.UserProfile, error)
	UpsertUserProfile(ctx context.Context, p *model.UserProfile) error
}

type Service struct {
	rows Rows
}

func NewService(rows Rows) *Service {
	return &Service{rows: rows}
}

type match[T any] struct {
	contains string
	value    T
}

// styleTable is checked in order; the first phrase found wins.
var styleTable = []match[model.CommunicationStyle]{
	{"steady, calm", model.StyleGentle},
	{"warm, friendly", model.StyleWarm},
	{"simply and directly", model.StyleDirect},
	{"neutral and adjust", model.StyleAdaptive},
}

var callOutTable = []match[model.CallOutPreference]{
	{"Give me space", model.CallOutUserInitiated},
	{"Check in softly", model.CallOutGentle},
	{"Nudge me gently", model.CallOutProactive},
	{"Call me out kindly", model.CallOutAuto},
}

func lookup[T any](table []match[T], answer string, fallback T) T {
	for _, m := range table {
		if strings.Contains(answer, m.contains) {
			return m.value
		}
	}
	return fallback
}

// CommunicationStyleFor maps the tone answer to a style, adaptive by default.
func CommunicationStyleFor(answer string) model.CommunicationStyle {
	return lookup(styleTable, answer, model.StyleAdaptive)
}

// CallOutPreferenceFor maps the shutdown answer to a call-out preference,
// user-initiated by default.
func CallOutPreferenceFor(answer string) model.CallOutPreference {
	return lookup(callOutTable, answer, model.CallOutUserInitiated)
}

func (a Answers) Validate() error {
	if strings.TrimSpace(a.FutureSelf) == "" {
		return model.Invalid("futureSelf", "must not be empty")
	}
	if a.Timezone != "" {
		if _, err := time.LoadLocation(a.Timezone); err != nil {
			return model.Invalid("timezone", "unknown time zone %q", a.Timezone)
		}
	}
	return nil
}

// Profile builds the stored profile from the answers.
func Profile(userID int64, a Answers) (*model.UserProfile, error) {
	quiz, err := quizData(a)
	if err != nil {
		return nil, err
	}
	tired := defaultTiredPattern
	if a.Pattern != nil && strings.TrimSpace(*a.Pattern) != "" {
		tired = *a.Pattern
	}
	goals := a.SupportNeeds
	if goals == nil {
		goals = []string{}
	}
	tz := a.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return &model.UserProfile{
		UserID:              userID,
		FutureSelfStatement: strings.TrimSpace(a.FutureSelf),
		Goals:               goals,
		Values:              []string{},
		TiredPattern:        tired,
		OverwhelmSignals:    defaultOverwhelmSignals,
		SpiralTime:          model.SpiralEvening,
		CommunicationStyle:  CommunicationStyleFor(a.TonePreference),
		CallOutPreference:   CallOutPreferenceFor(a.ShutdownPreference),
		ComfortStyle:        defaultComfortStyle,
		GroundingMethods:    []string{},
		Timezone:            tz,
		QuizData:            quiz,
	}, nil
}

// quizData keeps the raw answers alongside the mapped profile.
func quizData(a Answers) (string, error) {
	doc := "{}"
	fields := []struct {
		path  string
		value any
	}{
		{"whatsWorking", a.WhatsWorking},
		{"currentSelf", a.CurrentSelf},
		{"futureSelf", a.FutureSelf},
		{"supportNeeds", a.SupportNeeds},
		{"tonePreference", a.TonePreference},
		{"shutdownPreference", a.ShutdownPreference},
		{"pattern", a.Pattern},
	}
	for _, f := range fields {
		var err error
		if doc, err = sjson.Set(doc, f.path, f.value); err != nil {
			return "", fmt.Errorf("encoding quiz %s: %w", f.path, err)
		}
	}
	return doc, nil
}

// Save validates and writes the profile, overwriting any earlier one.
// Storage failures are returned to the caller.
func (s *Service) Save(ctx context.Context, userID int64, a Answers) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Timezone == "" {
		if existing, err := s.rows.GetUserProfile(ctx, userID); err == nil && existing != nil {
			a.Timezone = existing.Timezone
		}
	}
	p, err := Profile(userID, a)
	if err != nil {
		return err
	}
	if err := s.rows.UpsertUserProfile(ctx, p); err != nil {
		return fmt.Errorf("saving onboarding: %w", err)
	}
	return nil
}

// Check reports whether the user has a profile with a future-self statement.
func (s *Service) Check(ctx context.Context, userID int64) (bool, error) {
	p, err := s.rows.GetUserProfile(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("checking onboarding: %w", err)
	}
	return p.OnboardingComplete(), nil
}
