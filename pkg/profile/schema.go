// Package profile implements the client profile: completion tracking,
// heuristic extraction of profile fields from chat messages, and
// confidence-filtered merging.
package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/xhad/advisor/internal/models"
)

// Field tags reported by MissingFields, in the order they are checked.
const (
	FieldShortTermGoals  = "short_term_goals"
	FieldMediumTermGoals = "medium_term_goals"
	FieldLongTermGoals   = "long_term_goals"
	FieldRiskTolerance   = "risk_tolerance"
	FieldAssets          = "assets"
	FieldTimeHorizon     = "time_horizon"
	FieldPreferences     = "preferences"
	FieldExpectations    = "expectations"
)

// requiredGoals is how many of the three goal timeframes must be set. The
// completion model is a flexible N-of-M rule, not all-required.
const requiredGoals = 2

// completionPoints is the denominator of the completion percentage: two
// points for goals plus one each for risk tolerance, assets, time horizon,
// preferences and expectations.
const completionPoints = 6

// Empty returns a fresh all-unset profile. List fields are non-nil so the
// profile serializes with empty arrays rather than null.
func Empty() models.ClientProfile {
	return models.ClientProfile{
		Preferences:  []string{},
		Expectations: []string{},
	}
}

func isSet(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// GoalCount returns how many goal timeframe slots are filled.
func GoalCount(p models.ClientProfile) int {
	count := 0
	for _, slot := range []*string{p.Goals.ShortTerm, p.Goals.MediumTerm, p.Goals.LongTerm} {
		if isSet(slot) {
			count++
		}
	}
	return count
}

// MissingFields enumerates every unmet completeness condition in a stable
// order. Goal slots are only reported while fewer than two are filled.
func MissingFields(p models.ClientProfile) []string {
	var missing []string

	if GoalCount(p) < requiredGoals {
		if !isSet(p.Goals.ShortTerm) {
			missing = append(missing, FieldShortTermGoals)
		}
		if !isSet(p.Goals.MediumTerm) {
			missing = append(missing, FieldMediumTermGoals)
		}
		if !isSet(p.Goals.LongTerm) {
			missing = append(missing, FieldLongTermGoals)
		}
	}

	if !isSet(p.Risk.Tolerance) {
		missing = append(missing, FieldRiskTolerance)
	}
	if !isSet(p.Financials.Assets) {
		missing = append(missing, FieldAssets)
	}
	if !isSet(p.TimeHorizon) {
		missing = append(missing, FieldTimeHorizon)
	}
	if len(p.Preferences) < 1 {
		missing = append(missing, FieldPreferences)
	}
	if len(p.Expectations) < 1 {
		missing = append(missing, FieldExpectations)
	}

	return missing
}

// IsComplete reports whether every completeness condition is met.
func IsComplete(p models.ClientProfile) bool {
	return len(MissingFields(p)) == 0
}

// CompletionPercentage returns how complete the profile is, 0..100.
func CompletionPercentage(p models.ClientProfile) int {
	achieved := GoalCount(p)
	if achieved > requiredGoals {
		achieved = requiredGoals
	}

	if isSet(p.Risk.Tolerance) {
		achieved++
	}
	if isSet(p.Financials.Assets) {
		achieved++
	}
	if isSet(p.TimeHorizon) {
		achieved++
	}
	if len(p.Preferences) >= 1 {
		achieved++
	}
	if len(p.Expectations) >= 1 {
		achieved++
	}

	return int(math.Round(100 * float64(achieved) / completionPoints))
}

// Summarize renders the profile state as prose for the LLM prompt.
func Summarize(p models.ClientProfile) string {
	var completed, missing []string

	track := func(done bool, label string) {
		if done {
			completed = append(completed, label)
		} else {
			missing = append(missing, label)
		}
	}

	track(isSet(p.Goals.ShortTerm), "short-term goals")
	track(isSet(p.Goals.MediumTerm), "medium-term goals")
	track(isSet(p.Goals.LongTerm), "long-term goals")
	track(isSet(p.Risk.Tolerance), "risk tolerance")
	track(isSet(p.Financials.Assets), "assets")
	track(isSet(p.TimeHorizon), "time horizon")
	track(len(p.Preferences) >= 1, "investment preferences")
	track(len(p.Expectations) >= 1, "expectations")

	var summary strings.Builder

	if len(completed) > 0 {
		summary.WriteString(fmt.Sprintf("So far, you have provided: %s. ", strings.Join(completed, ", ")))
	}
	if len(missing) > 0 {
		summary.WriteString(fmt.Sprintf("Missing: %s. Please continue asking follow-up questions to fill those.", strings.Join(missing, ", ")))
	}

	return strings.TrimSpace(summary.String())
}
