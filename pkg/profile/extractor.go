package profile

import (
	"math"
	"regexp"
	"strings"

	"github.com/xhad/advisor/internal/models"
)

// ExtractorConfig bounds how many list entries the extractor will keep
// proposing. Caps exist so an enthusiastic user does not flood the profile.
type ExtractorConfig struct {
	PreferencesCap  int
	ExpectationsCap int
}

// DefaultExtractorConfig matches the application defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		PreferencesCap:  3,
		ExpectationsCap: 2,
	}
}

var (
	digitPattern   = regexp.MustCompile(`\d+`)
	moneyPattern   = regexp.MustCompile(`\$[\d,]+|\d+k\b|\d+000`)
	percentPattern = regexp.MustCompile(`\d+%|%`)
)

var goalKeywords = []string{
	"want", "goal", "plan", "save", "buy", "need", "hope", "wish", "intend", "aim",
}

var (
	shortTermIndicators  = []string{"soon", "month", "year", "immediate", "next year", "short term"}
	mediumTermIndicators = []string{"few years", "medium term", "3 years", "5 years", "7 years"}
	longTermIndicators   = []string{"retirement", "long term", "decade", "10 years", "20 years", "30 years"}
)

// Risk buckets in declaration order; the order breaks confidence ties.
var riskBuckets = []struct {
	level    string
	keywords []string
}{
	{"conservative", []string{"conservative", "safe", "low risk", "careful", "cautious", "stable", "secure"}},
	{"moderate", []string{"moderate", "balanced", "medium", "comfortable", "reasonable", "middle"}},
	{"aggressive", []string{"aggressive", "high risk", "growth", "bold", "risky", "adventurous"}},
}

var financialKeywords = []string{
	"saving", "asset", "worth", "total", "account", "bank", "portfolio", "investment",
}

var timeKeywords = []string{
	"year", "month", "time", "when", "timeline", "horizon", "period", "term",
}

var preferenceKeywords = []string{
	"prefer", "like", "want", "interested", "stock", "bond", "etf", "fund", "crypto", "real estate",
}

var expectationKeywords = []string{
	"expect", "hope", "return", "gain", "profit", "earn",
}

// rule is one extraction category. Each returns at most one update; nil
// means the category did not fire or its slot is saturated.
type rule struct {
	category string
	extract  func(utterance, lower string, p models.ClientProfile, cfg ExtractorConfig) *models.ProfileUpdate
}

// The canonical rule table. Categories are independent; all may fire on the
// same utterance, each proposing one update at most.
var rules = []rule{
	{"goals", extractGoal},
	{"risk_tolerance", extractRiskTolerance},
	{"assets", extractAssets},
	{"time_horizon", extractTimeHorizon},
	{"preferences", extractPreference},
	{"expectations", extractExpectation},
}

// ExtractUpdates derives candidate profile updates from a user utterance.
// It is non-regressive: a category only fires while its slot still has
// capacity, so an already-set scalar is never proposed again.
func ExtractUpdates(utterance string, current models.ClientProfile) []models.ProfileUpdate {
	return ExtractUpdatesWithConfig(utterance, current, DefaultExtractorConfig())
}

func ExtractUpdatesWithConfig(utterance string, current models.ClientProfile, cfg ExtractorConfig) []models.ProfileUpdate {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return nil
	}
	lower := strings.ToLower(trimmed)

	var updates []models.ProfileUpdate
	for _, r := range rules {
		if update := r.extract(trimmed, lower, current, cfg); update != nil {
			updates = append(updates, *update)
		}
	}
	return updates
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

func countMatches(s string, keywords []string) int {
	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			matches++
		}
	}
	return matches
}

func extractGoal(utterance, lower string, p models.ClientProfile, _ ExtractorConfig) *models.ProfileUpdate {
	// Goals saturate once two of the three timeframes are filled
	if GoalCount(p) >= requiredGoals {
		return nil
	}

	// Goal keyword, or a permissive length fallback
	if !containsAny(lower, goalKeywords) && len(utterance) <= 10 {
		return nil
	}

	confidence := 0.6
	target := "short_term"

	// Most specific timeframe first: the short-term indicators include bare
	// "year", which would otherwise shadow "5 years" or "20 years".
	switch {
	case containsAny(lower, longTermIndicators):
		target = "long_term"
		confidence = 0.9
	case containsAny(lower, mediumTermIndicators):
		target = "medium_term"
		confidence = 0.85
	case containsAny(lower, shortTermIndicators):
		target = "short_term"
		confidence = 0.8
	}

	// Fall through to the first empty slot when the natural target is taken
	if goalSlotFilled(p, target) {
		switch {
		case !isSet(p.Goals.ShortTerm):
			target = "short_term"
		case !isSet(p.Goals.MediumTerm):
			target = "medium_term"
		case !isSet(p.Goals.LongTerm):
			target = "long_term"
		default:
			return nil
		}
	}

	return &models.ProfileUpdate{
		Field:      "goals." + target,
		Value:      utterance,
		Confidence: confidence,
	}
}

func goalSlotFilled(p models.ClientProfile, slot string) bool {
	switch slot {
	case "short_term":
		return isSet(p.Goals.ShortTerm)
	case "medium_term":
		return isSet(p.Goals.MediumTerm)
	case "long_term":
		return isSet(p.Goals.LongTerm)
	}
	return false
}

func extractRiskTolerance(utterance, lower string, p models.ClientProfile, _ ExtractorConfig) *models.ProfileUpdate {
	if isSet(p.Risk.Tolerance) {
		return nil
	}

	maxConfidence := 0.0
	matchedBucket := ""
	for _, bucket := range riskBuckets {
		matches := countMatches(lower, bucket.keywords)
		if matches == 0 {
			continue
		}
		confidence := math.Min(0.9, 0.6+0.1*float64(matches))
		if confidence > maxConfidence {
			maxConfidence = confidence
			matchedBucket = bucket.level
		}
	}

	if matchedBucket == "" {
		return nil
	}

	return &models.ProfileUpdate{
		Field:      "risk.tolerance",
		Value:      utterance,
		Confidence: maxConfidence,
	}
}

func extractAssets(utterance, lower string, p models.ClientProfile, _ ExtractorConfig) *models.ProfileUpdate {
	if isSet(p.Financials.Assets) {
		return nil
	}

	hasDigits := digitPattern.MatchString(utterance)
	hasMoney := moneyPattern.MatchString(utterance)
	hasKeyword := containsAny(lower, financialKeywords)

	if !hasDigits && !hasMoney && !hasKeyword {
		return nil
	}

	confidence := 0.5
	switch {
	case hasMoney:
		confidence = 0.9
	case hasDigits && hasKeyword:
		confidence = 0.8
	case hasDigits:
		confidence = 0.6
	}

	return &models.ProfileUpdate{
		Field:      "financials.assets",
		Value:      utterance,
		Confidence: confidence,
	}
}

func extractTimeHorizon(utterance, lower string, p models.ClientProfile, _ ExtractorConfig) *models.ProfileUpdate {
	if isSet(p.TimeHorizon) {
		return nil
	}

	hasKeyword := containsAny(lower, timeKeywords)
	hasDigits := digitPattern.MatchString(utterance)

	if !hasKeyword && !hasDigits {
		return nil
	}

	confidence := 0.6
	switch {
	case hasKeyword && hasDigits:
		confidence = 0.85
	case hasKeyword:
		confidence = 0.7
	}

	return &models.ProfileUpdate{
		Field:      "time_horizon",
		Value:      utterance,
		Confidence: confidence,
	}
}

func extractPreference(utterance, lower string, p models.ClientProfile, cfg ExtractorConfig) *models.ProfileUpdate {
	if len(p.Preferences) >= cfg.PreferencesCap {
		return nil
	}

	if !containsAny(lower, preferenceKeywords) {
		return nil
	}

	return &models.ProfileUpdate{
		Field:      "preferences",
		Value:      utterance,
		Confidence: 0.75,
	}
}

func extractExpectation(utterance, lower string, p models.ClientProfile, cfg ExtractorConfig) *models.ProfileUpdate {
	if len(p.Expectations) >= cfg.ExpectationsCap {
		return nil
	}

	hasKeyword := containsAny(lower, expectationKeywords)
	hasPercent := percentPattern.MatchString(utterance)

	if !hasKeyword && !hasPercent {
		return nil
	}

	confidence := 0.7
	if hasPercent {
		confidence = 0.9
	}

	return &models.ProfileUpdate{
		Field:      "expectations",
		Value:      utterance,
		Confidence: confidence,
	}
}
