package usecase

import (
	"fmt"
	"math"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/util"
)

// BuildSignal renders the user-facing signal for an accepted candidate.
func BuildSignal(c *models.SignalCandidate, dominant string, now time.Time) models.Signal {
	price := 0.0
	if c.Reading != nil {
		price = c.Reading.Price
	}
	sig := models.Signal{
		Symbol:        c.Symbol,
		Direction:     c.Direction,
		Category:      c.Category,
		Priority:      c.Priority,
		Confidence:    round2(c.Confidence),
		CombinedScore: round2(c.CombinedScore),
		Title:         signalTitle(c, price),
		Summary:       signalSummary(c, price),
		Rationale:     explanation(c, dominant, now),
		HowToTrade:    howToTrade(c.Symbol, c.CombinedScore, price),
		Social:        c.Social,
		GeneratedAt:   c.GeneratedAt,
		Metadata: map[string]interface{}{
			"current_price":   price,
			"technical_score": round2(c.TechnicalScore),
			"news_sentiment":  round2(c.NewsScore),
			"ml_confidence":   round2(c.MLConfidence),
			"social_boost":    round2(c.SocialBoost),
			"dominant_factor": dominant,
		},
	}
	if c.Social != nil {
		sig.HypeLevel = c.Social.HypeLevel()
		sig.Metadata["hype_score"] = round2(c.Social.HypeScore(c.NewsScore))
		sig.Metadata["social_trending"] = c.Social.IsTrending()
		sig.Metadata["social_mentions"] = c.Social.Mentions
	}
	if c.Reading != nil && c.Reading.RSI != nil {
		sig.Metadata["rsi"] = round2(*c.Reading.RSI)
	}
	if lead := c.LeadArticle(); lead != nil {
		sig.Metadata["news_age_hours"] = round2(lead.AgeHours(now))
	}
	for _, a := range c.SupportingArticles {
		sig.Articles = append(sig.Articles, a.Article)
	}
	return sig
}

func signalTitle(c *models.SignalCandidate, price float64) string {
	if lead := c.LeadArticle(); lead != nil {
		snippet := util.Truncate(lead.Title, 60, "")
		switch {
		case c.CombinedScore > 0.5:
			return fmt.Sprintf("%s: %s", c.Symbol, snippet)
		case c.CombinedScore < -0.5:
			return fmt.Sprintf("%s Alert: %s", c.Symbol, snippet)
		default:
			return fmt.Sprintf("%s News: %s", c.Symbol, snippet)
		}
	}

	ma := c.Reading.MA
	switch {
	case c.CombinedScore > 0.6 && ma != nil && ma.GoldenCross:
		return fmt.Sprintf("%s Golden Cross Breakout Above $%.2f", c.Symbol, price)
	case c.CombinedScore > 0.6 && c.Reading.ChangePct > 3:
		return fmt.Sprintf("%s Surging %+.1f%% - Strong Momentum", c.Symbol, c.Reading.ChangePct)
	case c.CombinedScore > 0.6:
		return fmt.Sprintf("%s Shows Strong Bullish Setup at $%.2f", c.Symbol, price)
	case c.CombinedScore > 0.3:
		return fmt.Sprintf("%s Building Positive Momentum Near $%.2f", c.Symbol, price)
	case c.CombinedScore < -0.6 && ma != nil && ma.DeathCross:
		return fmt.Sprintf("%s Death Cross Warning Below $%.2f", c.Symbol, price)
	case c.CombinedScore < -0.6:
		return fmt.Sprintf("%s Under Pressure at $%.2f - Caution", c.Symbol, price)
	case c.CombinedScore < -0.3:
		return fmt.Sprintf("%s Showing Weakness at $%.2f", c.Symbol, price)
	default:
		return fmt.Sprintf("%s Consolidating at $%.2f", c.Symbol, price)
	}
}

func signalSummary(c *models.SignalCandidate, price float64) string {
	if lead := c.LeadArticle(); lead != nil {
		return fmt.Sprintf("%s at $%.2f - Breaking: %s...", c.Symbol, price, util.Truncate(lead.Title, 80, ""))
	}
	r := c.Reading
	parts := []string{fmt.Sprintf("%s trading at $%.2f (%+.1f%%)", c.Symbol, price, r.ChangePct)}
	if r.RSI != nil {
		if *r.RSI < 30 {
			parts = append(parts, "RSI oversold")
		} else if *r.RSI > 70 {
			parts = append(parts, "RSI overbought")
		}
	}
	if r.MACD != nil {
		switch r.MACD.Crossover {
		case models.CrossoverBullish:
			parts = append(parts, "MACD bullish crossover")
		case models.CrossoverBearish:
			parts = append(parts, "MACD bearish crossover")
		}
	}
	if r.MA != nil && r.MA.HasEMA200 && r.MA.AboveEMA200 {
		parts = append(parts, "above 200 EMA")
	}
	return strings.Join(parts, ", ")
}

func sentimentLabel(score float64) string {
	switch {
	case score > 0.6:
		return "strongly bullish"
	case score > 0.3:
		return "bullish"
	case score < -0.6:
		return "strongly bearish"
	case score < -0.3:
		return "bearish"
	default:
		return "neutral"
	}
}

func explanation(c *models.SignalCandidate, dominant string, now time.Time) string {
	var b strings.Builder
	b.WriteString("**WHY THIS MATTERS**:\n\n")

	label := sentimentLabel(c.CombinedScore)
	if lead := c.LeadArticle(); lead != nil {
		label = sentimentLabel(c.NewsScore)
		fmt.Fprintf(&b, "**Breaking News (%.1fh ago)**: %s\n\n", lead.AgeHours(now), lead.Title)
		fmt.Fprintf(&b, "**ML Sentiment Analysis**: %s (confidence: %.0f%%) across %d article(s).\n\n",
			label, c.MLConfidence*100, len(c.SupportingArticles))
	} else {
		b.WriteString("**News Sentiment**: No qualifying news. Technical setup only.\n\n")
	}

	b.WriteString("**Technical Confirmation**: ")
	r := c.Reading
	if r.RSI != nil {
		switch {
		case c.CombinedScore > 0 && *r.RSI < 50:
			fmt.Fprintf(&b, "RSI at %.0f suggests room for upside. ", *r.RSI)
		case c.CombinedScore < 0 && *r.RSI > 50:
			fmt.Fprintf(&b, "RSI at %.0f confirms weakness. ", *r.RSI)
		}
	}
	if r.MACD != nil {
		switch {
		case r.MACD.Crossover == models.CrossoverBullish && c.CombinedScore > 0:
			b.WriteString("MACD bullish crossover confirms momentum. ")
		case r.MACD.Crossover == models.CrossoverBearish && c.CombinedScore < 0:
			b.WriteString("MACD bearish crossover confirms downtrend. ")
		}
	}
	if r.HighVolume && r.VolumeRatio != nil {
		fmt.Fprintf(&b, "Volume %.1fx average confirms strong interest. ", *r.VolumeRatio)
	}
	if dominant != "" {
		fmt.Fprintf(&b, "Dominant factor: %s.", strings.ReplaceAll(dominant, "_", " "))
	}
	b.WriteString("\n\n")

	if c.Social != nil && c.Social.HypeLevel().Boosts() {
		trend := ""
		if c.Social.IsTrending() {
			trend = ", trending"
		}
		fmt.Fprintf(&b, "**Social Buzz**: %s hype%s, %d mentions (%+.0f%% in 24h), hype score %.2f.\n\n",
			c.Social.HypeLevel(), trend, c.Social.Mentions, c.Social.MomentumPct, c.Social.HypeScore(c.NewsScore))
	}

	b.WriteString("**Bottom Line**: ")
	switch {
	case c.CombinedScore > 0.5:
		fmt.Fprintf(&b, "Strong %s catalyst with technical support. High-probability setup.", label)
	case c.CombinedScore < -0.5:
		fmt.Fprintf(&b, "Significant %s pressure with technical weakness. Caution advised.", label)
	default:
		b.WriteString("Developing setup. Monitor for clearer confirmation.")
	}
	return b.String()
}

func howToTrade(symbol string, score, price float64) *models.HowToTrade {
	if price <= 0 {
		return nil
	}
	switch {
	case score > 0.5:
		return &models.HowToTrade{
			Action:  "buy",
			Entry:   round2(price * 1.005),
			Stop:    round2(price * 0.97),
			Targets: []float64{round2(price * 1.05), round2(price * 1.10)},
			Note:    "Take half at the first target. Size 2-3% of portfolio, 1-5 day horizon.",
		}
	case score < -0.5:
		return &models.HowToTrade{
			Action:  "avoid_longs",
			Entry:   round2(price),
			Stop:    round2(price * 1.03),
			Targets: []float64{round2(price * 0.95)},
			Note:    fmt.Sprintf("Consider trimming %s longs. Short levels are for experienced traders only.", symbol),
		}
	default:
		return &models.HowToTrade{
			Action:   "watch",
			Triggers: []float64{round2(price * 1.02), round2(price * 0.98)},
			Note:     fmt.Sprintf("Wait for %s to break a trigger level before acting.", symbol),
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
