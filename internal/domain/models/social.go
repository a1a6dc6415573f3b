package models

import "math"

type HypeLevel string

const (
	HypeStable   HypeLevel = "STABLE"
	HypeModerate HypeLevel = "MODERATE"
	HypeHigh     HypeLevel = "HIGH"
	HypeExtreme  HypeLevel = "EXTREME"
)

// Boosts reports whether the level is strong enough to lift confidence.
func (h HypeLevel) Boosts() bool {
	return h == HypeHigh || h == HypeExtreme
}

// SocialMention is a symbol's mention activity on social platforms.
type SocialMention struct {
	Symbol         string  `json:"symbol"`
	Rank           int     `json:"rank"`
	Mentions       int     `json:"mentions"`
	Mentions24hAgo int     `json:"mentions_24h_ago"`
	MomentumPct    float64 `json:"momentum_pct"`
	SentimentScore float64 `json:"sentiment_score"`
	Source         string  `json:"source"`
}

// MomentumPct is the 24h change in mention count, in percent.
// A symbol with no prior mentions counts as +100% when it has any now.
func MomentumPct(mentions, mentions24hAgo int) float64 {
	if mentions24hAgo <= 0 {
		if mentions > 0 {
			return 100
		}
		return 0
	}
	return float64(mentions-mentions24hAgo) / float64(mentions24hAgo) * 100
}

func (s SocialMention) HypeLevel() HypeLevel {
	switch {
	case s.MomentumPct > 100 && s.Mentions > 500:
		return HypeExtreme
	case s.MomentumPct > 50 && s.Mentions > 200:
		return HypeHigh
	case s.MomentumPct > 20:
		return HypeModerate
	default:
		return HypeStable
	}
}

// IsTrending marks symbols with meaningful volume that are still accelerating.
func (s SocialMention) IsTrending() bool {
	return s.Mentions >= 100 && s.MomentumPct >= 20
}

// HypeScore blends social momentum, social sentiment and news sentiment into [0, 1].
func (s SocialMention) HypeScore(newsScore float64) float64 {
	momentum := math.Min(math.Max(s.MomentumPct, 0)/200, 1)
	social := (clamp(s.SentimentScore, -1, 1) + 1) / 2
	news := (clamp(newsScore, -1, 1) + 1) / 2
	return 0.3*momentum + 0.2*social + 0.5*news
}
