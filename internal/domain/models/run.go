package models

import "time"

type RunMode string

const (
	ModeFull          RunMode = "full"
	ModeTechnicalOnly RunMode = "technical_only"
	ModeFallback      RunMode = "fallback"
)

type RunStats struct {
	ArticlesFetched     int `json:"articles_fetched"`
	ArticlesScored      int `json:"articles_scored"`
	ArticlesQualifying  int `json:"articles_qualifying"`
	SymbolsConsidered   int `json:"symbols_considered"`
	Candidates          int `json:"candidates"`
	Emitted             int `json:"emitted"`
	SuppressedDuplicate int `json:"suppressed_duplicate"`
	Dropped             int `json:"dropped"`
}

// RunResult is the ordered output of one generation run plus its metadata.
type RunResult struct {
	RunID          string            `json:"run_id"`
	Mode           RunMode           `json:"mode"`
	Placeholder    bool              `json:"placeholder"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	Signals        []Signal          `json:"signals"`
	Market         *MarketSnapshot   `json:"market,omitempty"`
	Trending       []SocialMention   `json:"trending,omitempty"`
	Stats          RunStats          `json:"stats"`
	ProviderErrors map[string]string `json:"provider_errors,omitempty"`
}

type OutcomeReason string

const (
	OutcomeEmitted             OutcomeReason = "emitted"
	OutcomeSuppressedDuplicate OutcomeReason = "suppressed_duplicate"
	OutcomeBelowThreshold      OutcomeReason = "below_threshold"
	OutcomeNeutral             OutcomeReason = "neutral"
	OutcomeNoTechnical         OutcomeReason = "no_technical"
	OutcomeTruncated           OutcomeReason = "truncated"
	OutcomePlaceholder         OutcomeReason = "placeholder"
)

// Outcome is the per-symbol decision written to the audit log.
type Outcome struct {
	Symbol        string        `json:"symbol"`
	Direction     Direction     `json:"direction,omitempty"`
	Reason        OutcomeReason `json:"reason"`
	Category      Category      `json:"category,omitempty"`
	CombinedScore float64       `json:"combined_score"`
	Confidence    float64       `json:"confidence"`
	At            time.Time     `json:"at"`
}
