package social

import (
	"context"
	"strings"

	"SignalForge/internal/domain/models"
	xhttp "SignalForge/pkg/http"
)

// Tradestie has no 24h history; the prior count is estimated as a fixed
// fraction of the current one.
const tradestiePriorRatio = 0.8

type tradestieItem struct {
	Ticker         string     `json:"ticker"`
	Comments       flexNumber `json:"no_of_comments"`
	Sentiment      string     `json:"sentiment"`
	SentimentScore flexNumber `json:"sentiment_score"`
}

// Tradestie reads r/wallstreetbets mention counts.
type Tradestie struct {
	url    string
	client *xhttp.Client
}

func NewTradestie(url string, client *xhttp.Client) *Tradestie {
	return &Tradestie{url: url, client: client}
}

func (t *Tradestie) Name() string { return "tradestie" }

func (t *Tradestie) Fetch(ctx context.Context, limit int) ([]models.SocialMention, error) {
	var raw []byte
	err := t.client.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: t.url}, &raw)
	if err != nil {
		return nil, err
	}
	var items []tradestieItem
	if err := decodeLenient(raw, &items); err != nil {
		return nil, err
	}
	out := make([]models.SocialMention, 0, len(items))
	for i, it := range items {
		if len(out) >= limit {
			break
		}
		sym := strings.ToUpper(strings.TrimSpace(it.Ticker))
		if !validTicker(sym) {
			continue
		}
		m := int(it.Comments)
		m24 := int(float64(m) * tradestiePriorRatio)
		out = append(out, models.SocialMention{
			Symbol:         sym,
			Rank:           i + 1,
			Mentions:       m,
			Mentions24hAgo: m24,
			MomentumPct:    models.MomentumPct(m, m24),
			SentimentScore: tradestieSentiment(it),
			Source:         "wallstreetbets",
		})
	}
	return out, nil
}

func tradestieSentiment(it tradestieItem) float64 {
	s := float64(it.SentimentScore)
	switch strings.ToLower(it.Sentiment) {
	case "bearish":
		if s > 0 {
			return -s
		}
	case "bullish":
		if s < 0 {
			return -s
		}
	}
	return s
}
