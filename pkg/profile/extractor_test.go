package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/pkg/profile"
)

func findUpdate(updates []models.ProfileUpdate, field string) *models.ProfileUpdate {
	for i := range updates {
		if updates[i].Field == field {
			return &updates[i]
		}
	}
	return nil
}

func TestExtractEmptyUtterance(t *testing.T) {
	assert.Nil(t, profile.ExtractUpdates("", profile.Empty()))
	assert.Nil(t, profile.ExtractUpdates("   ", profile.Empty()))
}

func TestExtractMediumTermGoal(t *testing.T) {
	utterance := "I want to save for a house in 5 years"
	updates := profile.ExtractUpdates(utterance, profile.Empty())

	goal := findUpdate(updates, "goals.medium_term")
	require.NotNil(t, goal)
	assert.Equal(t, utterance, goal.Value)
	assert.InDelta(t, 0.85, goal.Confidence, 1e-9)
}

func TestExtractGoalTimeframes(t *testing.T) {
	tests := []struct {
		utterance  string
		field      string
		confidence float64
	}{
		{"I want to pay off my credit card soon", "goals.short_term", 0.8},
		{"I plan to start a business in a few years", "goals.medium_term", 0.85},
		{"My goal is a comfortable retirement", "goals.long_term", 0.9},
		{"I want financial independence someday", "goals.short_term", 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			updates := profile.ExtractUpdates(tt.utterance, profile.Empty())
			goal := findUpdate(updates, tt.field)
			require.NotNil(t, goal)
			assert.InDelta(t, tt.confidence, goal.Confidence, 1e-9)
		})
	}
}

func TestExtractGoalFallsThroughToOpenSlot(t *testing.T) {
	p := profile.Empty()
	p.Goals.ShortTerm = str("emergency fund soon")

	updates := profile.ExtractUpdates("I want to travel more soon", p)
	goal := findUpdate(updates, "goals.medium_term")
	require.NotNil(t, goal)
}

func TestExtractGoalSaturatesAtTwo(t *testing.T) {
	p := profile.Empty()
	p.Goals.ShortTerm = str("emergency fund")
	p.Goals.LongTerm = str("retirement")

	updates := profile.ExtractUpdates("I want to buy a boat in a few years", p)
	assert.Nil(t, findUpdate(updates, "goals.short_term"))
	assert.Nil(t, findUpdate(updates, "goals.medium_term"))
	assert.Nil(t, findUpdate(updates, "goals.long_term"))
}

func TestExtractRiskTolerance(t *testing.T) {
	utterance := "I prefer safe and stable investments, nothing risky"
	updates := profile.ExtractUpdates(utterance, profile.Empty())

	risk := findUpdate(updates, "risk.tolerance")
	require.NotNil(t, risk)
	assert.Equal(t, utterance, risk.Value)
	// "safe" and "stable" both match the conservative bucket
	assert.InDelta(t, 0.8, risk.Confidence, 1e-9)
}

func TestExtractRiskNotProposedWhenAlreadySet(t *testing.T) {
	p := profile.Empty()
	p.Risk.Tolerance = str("moderate")

	updates := profile.ExtractUpdates("Actually I feel very aggressive about growth", p)
	assert.Nil(t, findUpdate(updates, "risk.tolerance"))
}

func TestExtractAssetsConfidenceLadder(t *testing.T) {
	tests := []struct {
		utterance  string
		confidence float64
	}{
		{"I have $50,000 saved up", 0.9},
		{"My account holds 500 shares of an index fund", 0.8},
		{"I own 3 properties", 0.6},
		{"All my savings are in the bank", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			updates := profile.ExtractUpdates(tt.utterance, profile.Empty())
			assets := findUpdate(updates, "financials.assets")
			require.NotNil(t, assets)
			assert.InDelta(t, tt.confidence, assets.Confidence, 1e-9)
		})
	}
}

func TestExtractTimeHorizon(t *testing.T) {
	updates := profile.ExtractUpdates("my timeline is about 10 years", profile.Empty())
	horizon := findUpdate(updates, "time_horizon")
	require.NotNil(t, horizon)
	assert.InDelta(t, 0.85, horizon.Confidence, 1e-9)

	updates = profile.ExtractUpdates("sometime before retirement age, long term", profile.Empty())
	horizon = findUpdate(updates, "time_horizon")
	require.NotNil(t, horizon)
	assert.InDelta(t, 0.7, horizon.Confidence, 1e-9)
}

func TestExtractPreferencesCapped(t *testing.T) {
	p := profile.Empty()
	p.Preferences = []string{"one", "two", "three"}

	updates := profile.ExtractUpdates("I really like etf funds", p)
	assert.Nil(t, findUpdate(updates, "preferences"))
}

func TestExtractExpectations(t *testing.T) {
	updates := profile.ExtractUpdates("I expect around 8% a year", profile.Empty())
	expectation := findUpdate(updates, "expectations")
	require.NotNil(t, expectation)
	assert.InDelta(t, 0.9, expectation.Confidence, 1e-9)

	updates = profile.ExtractUpdates("hoping for solid returns over time", profile.Empty())
	expectation = findUpdate(updates, "expectations")
	require.NotNil(t, expectation)
	assert.InDelta(t, 0.7, expectation.Confidence, 1e-9)
}

func TestMultipleCategoriesFireOnOneUtterance(t *testing.T) {
	utterance := "I want to retire in 20 years with $500,000, I'm comfortable with moderate risk"
	updates := profile.ExtractUpdates(utterance, profile.Empty())

	assert.NotNil(t, findUpdate(updates, "goals.long_term"))
	assert.NotNil(t, findUpdate(updates, "risk.tolerance"))
	assert.NotNil(t, findUpdate(updates, "financials.assets"))
	assert.NotNil(t, findUpdate(updates, "time_horizon"))
	for _, u := range updates {
		assert.Equal(t, utterance, u.Value)
	}
}
