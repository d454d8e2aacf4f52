package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/pkg/profile"
)

func TestApplyThresholdIsStrict(t *testing.T) {
	p := profile.Apply(profile.Empty(), []models.ProfileUpdate{
		{Field: "time_horizon", Value: "about 10 years", Confidence: 0.85},
		{Field: "financials.assets", Value: "some digits", Confidence: 0.6},
	})

	require.NotNil(t, p.TimeHorizon)
	assert.Equal(t, "about 10 years", *p.TimeHorizon)
	// Exactly at the threshold is not enough
	assert.Nil(t, p.Financials.Assets)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	original := profile.Empty()
	original.Preferences = []string{"bonds"}

	updated := profile.Apply(original, []models.ProfileUpdate{
		{Field: "preferences", Value: "etfs", Confidence: 0.75},
		{Field: "risk.tolerance", Value: "moderate please", Confidence: 0.8},
	})

	assert.Equal(t, []string{"bonds"}, original.Preferences)
	assert.Nil(t, original.Risk.Tolerance)
	assert.Equal(t, []string{"bonds", "etfs"}, updated.Preferences)
}

func TestApplyArrayDeduplicates(t *testing.T) {
	p := profile.Apply(profile.Empty(), []models.ProfileUpdate{
		{Field: "expectations", Value: "8% a year", Confidence: 0.9},
	})
	p = profile.Apply(p, []models.ProfileUpdate{
		{Field: "expectations", Value: "8% a year", Confidence: 0.9},
	})

	assert.Equal(t, []string{"8% a year"}, p.Expectations)
}

func TestApplyScalarOverwrites(t *testing.T) {
	p := profile.Apply(profile.Empty(), []models.ProfileUpdate{
		{Field: "goals.short_term", Value: "first answer", Confidence: 0.8},
	})
	p = profile.Apply(p, []models.ProfileUpdate{
		{Field: "goals.short_term", Value: "better answer", Confidence: 0.9},
	})

	require.NotNil(t, p.Goals.ShortTerm)
	assert.Equal(t, "better answer", *p.Goals.ShortTerm)
}

func TestApplyIgnoresUnknownFields(t *testing.T) {
	p := profile.Apply(profile.Empty(), []models.ProfileUpdate{
		{Field: "favorite_color", Value: "green", Confidence: 0.95},
	})

	assert.Equal(t, profile.Empty(), p)
}

func TestApplyWithThresholdCustom(t *testing.T) {
	p := profile.ApplyWithThreshold(profile.Empty(), []models.ProfileUpdate{
		{Field: "financials.assets", Value: "numbers only", Confidence: 0.6},
	}, 0.5)

	require.NotNil(t, p.Financials.Assets)
}

func TestCloneIsDeep(t *testing.T) {
	p := profile.Empty()
	p.Risk.Tolerance = str("moderate")
	p.Preferences = []string{"etfs"}

	clone := profile.Clone(p)
	*clone.Risk.Tolerance = "aggressive"
	clone.Preferences[0] = "crypto"

	assert.Equal(t, "moderate", *p.Risk.Tolerance)
	assert.Equal(t, []string{"etfs"}, p.Preferences)
}

func TestMergeSkipsNilScalars(t *testing.T) {
	base := profile.Empty()
	base.Risk.Tolerance = str("moderate")
	base.TimeHorizon = str("10 years")

	merged := profile.Merge(base, &models.ClientProfile{
		TimeHorizon: str("20 years"),
	})

	assert.Equal(t, "moderate", *merged.Risk.Tolerance)
	assert.Equal(t, "20 years", *merged.TimeHorizon)
}

func TestMergeArraysReplaceWholesale(t *testing.T) {
	base := profile.Empty()
	base.Preferences = []string{"bonds", "etfs"}
	base.Expectations = []string{"steady income"}

	merged := profile.Merge(base, &models.ClientProfile{
		Preferences: []string{"crypto"},
	})

	assert.Equal(t, []string{"crypto"}, merged.Preferences)
	// A nil incoming array leaves the base untouched
	assert.Equal(t, []string{"steady income"}, merged.Expectations)
}

func TestMergeIdempotent(t *testing.T) {
	incoming := &models.ClientProfile{
		Risk:        models.Risk{Tolerance: str("aggressive")},
		Preferences: []string{"growth stocks"},
	}

	once := profile.Merge(profile.Empty(), incoming)
	twice := profile.Merge(once, incoming)

	assert.Equal(t, once, twice)
}

func TestMergeNilIncoming(t *testing.T) {
	base := profile.Empty()
	base.Risk.Tolerance = str("moderate")

	merged := profile.Merge(base, nil)
	assert.Equal(t, base, merged)
}
