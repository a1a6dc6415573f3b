package usecase

import (
	"math"
	"sort"
	"time"

	"SignalForge/internal/domain/models"
)

// Thresholds are category lower bounds on the confidence scale.
type Thresholds struct {
	TradeAlert    float64
	WatchList     float64
	MarketContext float64
}

type FusionConfig struct {
	NewsWeight            float64
	TechnicalWeight       float64
	MinDirectional        float64
	NoNewsWeight          float64
	TechnicalOnlyWeight   float64
	NeutralBand           float64
	SocialBoostCap        float64
	MaxSupportingArticles int
	Full                  Thresholds
	TechnicalOnly         Thresholds
}

func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		NewsWeight:            0.7,
		TechnicalWeight:       0.3,
		MinDirectional:        0.3,
		NoNewsWeight:          0.7,
		TechnicalOnlyWeight:   1.0,
		NeutralBand:           0.05,
		SocialBoostCap:        0.1,
		MaxSupportingArticles: 3,
		Full:                  Thresholds{TradeAlert: 0.6, WatchList: 0.4, MarketContext: 0.3},
		TechnicalOnly:         Thresholds{TradeAlert: 0.5, WatchList: 0.35, MarketContext: 0.25},
	}
}

// NewsScore is the per-symbol aggregate of qualifying article sentiment.
type NewsScore struct {
	Score        float64
	MLConfidence float64
	Articles     []models.SupportingArticle
}

// AggregateNews computes the mention-confidence-weighted sentiment mean for
// every symbol found in the qualifying articles. Symbols whose mean is below
// the directional threshold are left out.
func AggregateNews(
	articles map[string]models.Article,
	sentiments map[string]models.SentimentResult,
	mentions map[string][]models.SymbolMention,
	minDirectional float64,
	maxSupporting int,
) map[string]NewsScore {
	out := make(map[string]NewsScore, len(mentions))
	for symbol, ms := range mentions {
		var (
			weighted, confSum, weights float64
			support                    []models.SupportingArticle
		)
		for _, m := range ms {
			s, ok := sentiments[m.SourceArticleID]
			if !ok {
				continue
			}
			a, ok := articles[m.SourceArticleID]
			if !ok {
				continue
			}
			weighted += s.Score * m.MatchConfidence
			confSum += s.Confidence * m.MatchConfidence
			weights += m.MatchConfidence
			support = append(support, models.SupportingArticle{Article: a, Sentiment: s, MatchConfidence: m.MatchConfidence})
		}
		if weights == 0 {
			continue
		}
		score := weighted / weights
		if math.Abs(score) < minDirectional {
			continue
		}
		sort.SliceStable(support, func(i, j int) bool {
			wi := math.Abs(support[i].Sentiment.Score) * support[i].MatchConfidence
			wj := math.Abs(support[j].Sentiment.Score) * support[j].MatchConfidence
			if wi != wj {
				return wi > wj
			}
			return support[i].PublishedAt.After(support[j].PublishedAt)
		})
		if maxSupporting > 0 && len(support) > maxSupporting {
			support = support[:maxSupporting]
		}
		out[symbol] = NewsScore{Score: score, MLConfidence: confSum / weights, Articles: support}
	}
	return out
}

// Fuser turns per-symbol inputs into a categorized candidate.
type Fuser struct {
	cfg FusionConfig
}

func NewFuser(cfg FusionConfig) *Fuser {
	return &Fuser{cfg: cfg}
}

// FuseInput carries everything known about one symbol in a run.
type FuseInput struct {
	Symbol         string
	TechnicalScore float64
	Reading        *models.TechnicalReading
	News           *NewsScore
	Social         *models.SocialMention
	Mode           models.RunMode
	Now            time.Time
}

// Fuse returns the candidate, or nil and the reason it was dropped.
func (f *Fuser) Fuse(in FuseInput) (*models.SignalCandidate, models.OutcomeReason) {
	if in.Reading == nil {
		return nil, models.OutcomeNoTechnical
	}

	c := &models.SignalCandidate{
		Symbol:         in.Symbol,
		TechnicalScore: in.TechnicalScore,
		Reading:        in.Reading,
		Social:         in.Social,
		GeneratedAt:    in.Now,
	}

	thresholds := f.cfg.Full
	if in.Mode != models.ModeFull {
		thresholds = f.cfg.TechnicalOnly
	}
	switch {
	case in.Mode == models.ModeFull && in.News != nil:
		c.HasNews = true
		c.NewsScore = in.News.Score
		c.MLConfidence = in.News.MLConfidence
		c.SupportingArticles = in.News.Articles
		c.CombinedScore = in.News.Score*f.cfg.NewsWeight + in.TechnicalScore*f.cfg.TechnicalWeight
	case in.Mode == models.ModeFull:
		// no qualifying news: technicals alone at a reduced weight, still
		// held to the full-mode thresholds
		c.CombinedScore = in.TechnicalScore * f.cfg.NoNewsWeight
	default:
		c.CombinedScore = in.TechnicalScore * f.cfg.TechnicalOnlyWeight
	}
	c.CombinedScore = clamp(c.CombinedScore, -1, 1)

	switch {
	case c.CombinedScore > f.cfg.NeutralBand:
		c.Direction = models.DirectionBullish
	case c.CombinedScore < -f.cfg.NeutralBand:
		c.Direction = models.DirectionBearish
	default:
		c.Direction = models.DirectionNeutral
		return nil, models.OutcomeNeutral
	}

	c.Confidence = math.Abs(c.CombinedScore)
	if in.Social != nil && in.Social.HypeLevel().Boosts() {
		c.SocialBoost = math.Min(f.cfg.SocialBoostCap, math.Max(in.Social.MomentumPct, 0)/1000)
		c.Confidence = math.Min(1, c.Confidence+c.SocialBoost)
	}

	cat, ok := categorize(c.Confidence, thresholds)
	if !ok {
		return nil, models.OutcomeBelowThreshold
	}
	c.Category = cat
	c.Priority = priority(c.CombinedScore, c.MLConfidence)
	return c, ""
}

func categorize(confidence float64, t Thresholds) (models.Category, bool) {
	switch {
	case confidence > t.TradeAlert:
		return models.CategoryTradeAlert, true
	case confidence >= t.WatchList:
		return models.CategoryWatchList, true
	case confidence >= t.MarketContext:
		return models.CategoryMarketContext, true
	default:
		return "", false
	}
}

func priority(combined, mlConfidence float64) models.Priority {
	abs := math.Abs(combined)
	switch {
	case abs > 0.7 && mlConfidence > 0.8:
		return models.PriorityHigh
	case abs > 0.5:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// Rank orders candidates by signal strength, then confidence, then the
// freshest supporting article.
func Rank(cands []*models.SignalCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		si, sj := math.Abs(cands[i].CombinedScore), math.Abs(cands[j].CombinedScore)
		if si != sj {
			return si > sj
		}
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		return cands[i].FreshestArticle().After(cands[j].FreshestArticle())
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
