package models

import "time"

// ClientProfile is the structured trader/investor profile built up over a
// conversation. Scalar fields are nil until the user provides them; once set
// they hold the raw trimmed utterance, never a normalized value.
type ClientProfile struct {
	Goals        Goals      `json:"goals"`
	Risk         Risk       `json:"risk"`
	Financials   Financials `json:"financials"`
	TimeHorizon  *string    `json:"time_horizon"`
	Preferences  []string   `json:"preferences"`
	Expectations []string   `json:"expectations"`
}

type Goals struct {
	ShortTerm  *string `json:"short_term"`
	MediumTerm *string `json:"medium_term"`
	LongTerm   *string `json:"long_term"`
}

type Risk struct {
	Tolerance *string `json:"tolerance"`
	History   *string `json:"history"`
}

type Financials struct {
	Income   *string `json:"income"`
	Assets   *string `json:"assets"`
	Expenses *string `json:"expenses"`
}

// ProfileUpdate is a single candidate field change proposed by the
// extractor. Field is either a dotted path ("goals.short_term",
// "risk.tolerance") or a top-level list name ("preferences").
type ProfileUpdate struct {
	Field      string  `json:"field"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ProfileRecord is what the profile store keeps per user.
type ProfileRecord struct {
	Profile   ClientProfile `json:"profile"`
	UpdatedAt time.Time     `json:"updated_at"`
}
