package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Article is a normalized news item. It is not mutated after fetch.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	BodyExcerpt string    `json:"body_excerpt,omitempty"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ArticleID derives the stable article identifier from its URL.
func ArticleID(url string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])
}

// Text is the input handed to the sentiment model.
func (a Article) Text() string {
	if a.BodyExcerpt == "" {
		return a.Title
	}
	return a.Title + ". " + a.BodyExcerpt
}

// AgeHours returns how old the article is relative to now.
func (a Article) AgeHours(now time.Time) float64 {
	if a.PublishedAt.IsZero() {
		return 0
	}
	h := now.Sub(a.PublishedAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentBearish SentimentLabel = "bearish"
	SentimentNeutral SentimentLabel = "neutral"
)

// Probabilities is the raw three-class model output.
type Probabilities struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

type SentimentResult struct {
	ArticleID     string         `json:"article_id"`
	Score         float64        `json:"score"`      // [-1, 1]
	Confidence    float64        `json:"confidence"` // [0, 1]
	Label         SentimentLabel `json:"label"`
	Probabilities Probabilities  `json:"probabilities"`
}

// SentimentFromProbabilities maps model probabilities to a directional result:
// score is P(pos)-P(neg), confidence the winning probability, label the argmax.
func SentimentFromProbabilities(articleID string, p Probabilities) SentimentResult {
	label := SentimentNeutral
	conf := p.Neutral
	if p.Positive > conf {
		label, conf = SentimentBullish, p.Positive
	}
	if p.Negative > conf {
		label, conf = SentimentBearish, p.Negative
	}
	return SentimentResult{
		ArticleID:     articleID,
		Score:         clamp(p.Positive-p.Negative, -1, 1),
		Confidence:    clamp(conf, 0, 1),
		Label:         label,
		Probabilities: p,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
