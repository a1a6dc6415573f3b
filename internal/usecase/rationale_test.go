package usecase

import (
	"strings"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
)

func TestHowToTradeLevels(t *testing.T) {
	bull := howToTrade("AAPL", 0.7, 100)
	if bull.Action != "buy" || bull.Entry != 100.5 || bull.Stop != 97 || bull.Targets[0] != 105 || bull.Targets[1] != 110 {
		t.Fatalf("bullish levels: %+v", bull)
	}
	bear := howToTrade("AAPL", -0.7, 100)
	if bear.Action != "avoid_longs" || bear.Stop != 103 || bear.Targets[0] != 95 {
		t.Fatalf("bearish levels: %+v", bear)
	}
	watch := howToTrade("AAPL", 0.4, 100)
	if watch.Action != "watch" || watch.Triggers[0] != 102 || watch.Triggers[1] != 98 {
		t.Fatalf("watch triggers: %+v", watch)
	}
	if howToTrade("AAPL", 0.9, 0) != nil {
		t.Fatalf("no guidance without a price")
	}
}

func TestTechnicalTitles(t *testing.T) {
	r := reading("NVDA", 900)
	r.MA = &models.MAState{GoldenCross: true}
	c := &models.SignalCandidate{Symbol: "NVDA", CombinedScore: 0.7, Reading: r}
	if got := signalTitle(c, 900); got != "NVDA Golden Cross Breakout Above $900.00" {
		t.Fatalf("title: %q", got)
	}
	c.CombinedScore = -0.4
	if got := signalTitle(c, 900); got != "NVDA Showing Weakness at $900.00" {
		t.Fatalf("title: %q", got)
	}
}

func TestBuildSignalFromNews(t *testing.T) {
	rsi := 42.0
	r := reading("AAPL", 190)
	r.RSI = &rsi
	r.MACD = &models.MACDState{Crossover: models.CrossoverBullish}
	long := "Apple beats earnings estimates on record iPhone sales and services growth across every region"
	c := &models.SignalCandidate{
		Symbol: "AAPL", Direction: models.DirectionBullish, Category: models.CategoryTradeAlert,
		CombinedScore: 0.68, Confidence: 0.68, NewsScore: 0.8, TechnicalScore: 0.4, MLConfidence: 0.9,
		Reading:            r,
		SupportingArticles: []models.SupportingArticle{{Article: article(long, 2*time.Hour)}},
		GeneratedAt:        testNow,
	}
	s := BuildSignal(c, "rsi", testNow)

	if !strings.HasPrefix(s.Summary, "AAPL at $190.00 - Breaking: ") || !strings.HasSuffix(s.Summary, "...") {
		t.Fatalf("summary: %q", s.Summary)
	}
	for _, want := range []string{"WHY THIS MATTERS", "(2.0h ago)", "strongly bullish", "RSI at 42 suggests room for upside", "MACD bullish crossover", "Bottom Line"} {
		if !strings.Contains(s.Rationale, want) {
			t.Fatalf("rationale missing %q:\n%s", want, s.Rationale)
		}
	}
	if s.Metadata["news_age_hours"].(float64) != 2 || s.Metadata["rsi"].(float64) != 42 {
		t.Fatalf("metadata: %+v", s.Metadata)
	}
	if len([]rune(strings.TrimPrefix(s.Title, "AAPL: "))) > 60 {
		t.Fatalf("title snippet not truncated: %q", s.Title)
	}
}

func TestBuildSignalSocialBuzz(t *testing.T) {
	c := &models.SignalCandidate{
		Symbol: "GME", Direction: models.DirectionBullish, Category: models.CategoryWatchList,
		CombinedScore: 0.45, Confidence: 0.5, NewsScore: 0.6, TechnicalScore: 0.2, SocialBoost: 0.1,
		Reading: reading("GME", 25),
		Social: &models.SocialMention{
			Symbol: "GME", Mentions: 900, Mentions24hAgo: 300, MomentumPct: 200, SentimentScore: 0.5,
		},
		GeneratedAt: testNow,
	}
	s := BuildSignal(c, "", testNow)

	// 0.3*1 + 0.2*0.75 + 0.5*0.8
	if s.Metadata["hype_score"].(float64) != 0.85 {
		t.Fatalf("hype score: %+v", s.Metadata)
	}
	if s.Metadata["social_trending"] != true || s.Metadata["social_mentions"] != 900 {
		t.Fatalf("social metadata: %+v", s.Metadata)
	}
	if s.HypeLevel != models.HypeExtreme {
		t.Fatalf("hype level: %s", s.HypeLevel)
	}
	if !strings.Contains(s.Rationale, "**Social Buzz**: EXTREME hype, trending, 900 mentions (+200% in 24h), hype score 0.85.") {
		t.Fatalf("rationale:\n%s", s.Rationale)
	}
}

func TestPlaceholderSignals(t *testing.T) {
	got := placeholderSignals([]string{"AAPL", "MSFT"}, 3, testNow)
	if len(got) != 2 || !got[0].Placeholder || got[1].Symbol != "MSFT" {
		t.Fatalf("placeholders: %+v", got)
	}
}
