package profile

import "github.com/xhad/advisor/internal/models"

// DefaultApplyThreshold is the confidence an update must exceed to be
// applied. Configurable because the right cutoff drifted over the life of
// the product; 0.6 is the canonical value.
const DefaultApplyThreshold = 0.6

// Apply returns a copy of the profile with every qualifying update applied.
// The input profile is not mutated. Updates at or below the threshold and
// updates naming unknown fields are dropped silently; this is a best-effort
// merge layer, not a validator.
func Apply(p models.ClientProfile, updates []models.ProfileUpdate) models.ClientProfile {
	return ApplyWithThreshold(p, updates, DefaultApplyThreshold)
}

func ApplyWithThreshold(p models.ClientProfile, updates []models.ProfileUpdate, threshold float64) models.ClientProfile {
	out := Clone(p)

	for _, update := range updates {
		if update.Confidence <= threshold {
			continue
		}

		value := update.Value
		switch update.Field {
		case "goals.short_term":
			out.Goals.ShortTerm = &value
		case "goals.medium_term":
			out.Goals.MediumTerm = &value
		case "goals.long_term":
			out.Goals.LongTerm = &value
		case "risk.tolerance":
			out.Risk.Tolerance = &value
		case "risk.history":
			out.Risk.History = &value
		case "financials.income":
			out.Financials.Income = &value
		case "financials.assets":
			out.Financials.Assets = &value
		case "financials.expenses":
			out.Financials.Expenses = &value
		case "time_horizon":
			out.TimeHorizon = &value
		case "preferences":
			out.Preferences = appendUnique(out.Preferences, value)
		case "expectations":
			out.Expectations = appendUnique(out.Expectations, value)
		}
	}

	return out
}

// appendUnique appends value unless already present; insertion order is
// preserved.
func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

// Clone deep-copies a profile so callers can mutate the result freely.
func Clone(p models.ClientProfile) models.ClientProfile {
	out := models.ClientProfile{
		Goals: models.Goals{
			ShortTerm:  cloneString(p.Goals.ShortTerm),
			MediumTerm: cloneString(p.Goals.MediumTerm),
			LongTerm:   cloneString(p.Goals.LongTerm),
		},
		Risk: models.Risk{
			Tolerance: cloneString(p.Risk.Tolerance),
			History:   cloneString(p.Risk.History),
		},
		Financials: models.Financials{
			Income:   cloneString(p.Financials.Income),
			Assets:   cloneString(p.Financials.Assets),
			Expenses: cloneString(p.Financials.Expenses),
		},
		TimeHorizon:  cloneString(p.TimeHorizon),
		Preferences:  []string{},
		Expectations: []string{},
	}
	out.Preferences = append(out.Preferences, p.Preferences...)
	out.Expectations = append(out.Expectations, p.Expectations...)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Merge deep-merges incoming on top of base and returns the result. Nil
// incoming scalars are skipped so they never clobber stored data; non-nil
// list fields replace wholesale (contrast with Apply, which appends with
// de-duplication). Merging the same incoming profile twice is idempotent.
func Merge(base models.ClientProfile, incoming *models.ClientProfile) models.ClientProfile {
	out := Clone(base)
	if incoming == nil {
		return out
	}

	mergeString(&out.Goals.ShortTerm, incoming.Goals.ShortTerm)
	mergeString(&out.Goals.MediumTerm, incoming.Goals.MediumTerm)
	mergeString(&out.Goals.LongTerm, incoming.Goals.LongTerm)
	mergeString(&out.Risk.Tolerance, incoming.Risk.Tolerance)
	mergeString(&out.Risk.History, incoming.Risk.History)
	mergeString(&out.Financials.Income, incoming.Financials.Income)
	mergeString(&out.Financials.Assets, incoming.Financials.Assets)
	mergeString(&out.Financials.Expenses, incoming.Financials.Expenses)
	mergeString(&out.TimeHorizon, incoming.TimeHorizon)

	if incoming.Preferences != nil {
		out.Preferences = append([]string{}, incoming.Preferences...)
	}
	if incoming.Expectations != nil {
		out.Expectations = append([]string{}, incoming.Expectations...)
	}

	return out
}

func mergeString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
