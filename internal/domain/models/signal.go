package models

import "time"

type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Opposite returns the other direction of the same symbol.
func (d Direction) Opposite() Direction {
	if d == DirectionBullish {
		return DirectionBearish
	}
	return DirectionBullish
}

type Category string

const (
	CategoryTradeAlert    Category = "trade_alert"
	CategoryWatchList     Category = "watch_list"
	CategoryMarketContext Category = "market_context"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type MatchMethod string

const (
	MatchCashtag       MatchMethod = "cashtag"
	MatchTickerKeyword MatchMethod = "ticker_keyword"
	MatchTickerParen   MatchMethod = "ticker_paren"
	MatchCompanyName   MatchMethod = "company_name"
)

// SymbolMention links a tradable symbol to the article it was found in.
type SymbolMention struct {
	Symbol          string      `json:"symbol"`
	SourceArticleID string      `json:"source_article_id"`
	MatchConfidence float64     `json:"match_confidence"`
	MatchedText     string      `json:"matched_text"`
	Method          MatchMethod `json:"method"`
}

// SupportingArticle is an article that contributed to a candidate's news score.
type SupportingArticle struct {
	Article
	Sentiment       SentimentResult `json:"sentiment"`
	MatchConfidence float64         `json:"match_confidence"`
}

// SignalCandidate is the in-run fusion result for one symbol, before gating.
type SignalCandidate struct {
	Symbol             string              `json:"symbol"`
	Direction          Direction           `json:"direction"`
	TechnicalScore     float64             `json:"technical_score"`
	NewsScore          float64             `json:"news_score"`
	HasNews            bool                `json:"has_news"`
	SocialBoost        float64             `json:"social_boost"`
	CombinedScore      float64             `json:"combined_score"`
	Confidence         float64             `json:"confidence"`
	MLConfidence       float64             `json:"ml_confidence"`
	Category           Category            `json:"category"`
	Priority           Priority            `json:"priority"`
	SupportingArticles []SupportingArticle `json:"supporting_articles,omitempty"`
	Social             *SocialMention      `json:"social,omitempty"`
	Reading            *TechnicalReading   `json:"reading,omitempty"`
	GeneratedAt        time.Time           `json:"generated_at"`
}

// FreshestArticle returns the newest supporting article publish time.
func (c *SignalCandidate) FreshestArticle() time.Time {
	var t time.Time
	for _, a := range c.SupportingArticles {
		if a.PublishedAt.After(t) {
			t = a.PublishedAt
		}
	}
	return t
}

// LeadArticle returns the highest-weighted supporting article, if any.
func (c *SignalCandidate) LeadArticle() *SupportingArticle {
	if len(c.SupportingArticles) == 0 {
		return nil
	}
	return &c.SupportingArticles[0]
}

// SignalRecord is the persisted emission used for deduplication.
type SignalRecord struct {
	Symbol          string                 `json:"symbol"`
	Direction       Direction              `json:"direction"`
	ConfidenceScore float64                `json:"confidence_score"`
	SourceArticleID string                 `json:"source_article_id,omitempty"`
	NewsTitle       string                 `json:"news_title,omitempty"`
	SentimentScore  float64                `json:"sentiment_score"`
	TechnicalScore  float64                `json:"technical_score"`
	PriceAtSignal   float64                `json:"price_at_signal"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	ExpiresAt       time.Time              `json:"expires_at"`
}

// ActiveAt reports whether the record still suppresses repeats at t.
func (r *SignalRecord) ActiveAt(t time.Time) bool {
	return r.ExpiresAt.After(t)
}

// HowToTrade holds price-level guidance derived from the signal direction.
type HowToTrade struct {
	Action   string    `json:"action"`
	Entry    float64   `json:"entry,omitempty"`
	Stop     float64   `json:"stop,omitempty"`
	Targets  []float64 `json:"targets,omitempty"`
	Triggers []float64 `json:"triggers,omitempty"`
	Note     string    `json:"note,omitempty"`
}

// Signal is the produced, user-facing trade idea.
type Signal struct {
	Symbol        string                 `json:"symbol"`
	Direction     Direction              `json:"direction"`
	Category      Category               `json:"category"`
	Priority      Priority               `json:"priority"`
	Confidence    float64                `json:"confidence"`
	CombinedScore float64                `json:"combined_score"`
	Title         string                 `json:"title"`
	Summary       string                 `json:"summary"`
	Rationale     string                 `json:"rationale"`
	HowToTrade    *HowToTrade            `json:"how_to_trade,omitempty"`
	Articles      []Article              `json:"articles,omitempty"`
	Social        *SocialMention         `json:"social,omitempty"`
	HypeLevel     HypeLevel              `json:"hype_level,omitempty"`
	Placeholder   bool                   `json:"placeholder,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	GeneratedAt   time.Time              `json:"generated_at"`
}
