package extractor

import (
	"regexp"
	"sort"
	"strings"

	"SignalForge/internal/domain/models"
)

// Tier confidences.
const (
	confCashtagTitle  = 0.95
	confCashtag       = 0.90
	confTickerTitle   = 0.80
	confTickerRepeat  = 0.75
	confTicker        = 0.70
	confCompanyTitle  = 0.65
	confCompany       = 0.60
	tickerRepeatCount = 2
)

var (
	cashtagRe  = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
	keywordRe  = regexp.MustCompile(`\b([A-Z]{2,5})\s+(?i:stock|stocks|shares|equity|ticker|symbol|corporation|corp|inc)\b`)
	parenRe    = regexp.MustCompile(`[A-Z][\w&.'-]*\s*\(([A-Z]{1,5})\)`)
	exchangeRe = regexp.MustCompile(`\((?:NASDAQ|Nasdaq|NYSE|NYSEARCA|AMEX)\s*:\s*([A-Z]{1,5})\)`)
	stockCtxRe = regexp.MustCompile(`(?i)\b(stock|stocks|shares|shareholders|investors|analysts|earnings|revenue|quarter|quarterly|guidance|nyse|nasdaq|wall street|market cap|ticker)\b`)
)

type companyMatcher struct {
	company
	re *regexp.Regexp
}

// Extractor resolves ticker mentions in article text.
type Extractor struct {
	minConfidence float64
	companies     []companyMatcher
}

func New(minConfidence float64) *Extractor {
	e := &Extractor{minConfidence: minConfidence}
	for _, c := range companies {
		e.companies = append(e.companies, companyMatcher{
			company: c,
			re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(c.Name) + `\b`),
		})
	}
	return e
}

// Extract returns one mention per symbol, highest confidence first.
func (e *Extractor) Extract(a models.Article) []models.SymbolMention {
	text := a.Title
	if a.BodyExcerpt != "" {
		text += "\n" + a.BodyExcerpt
	}
	best := make(map[string]models.SymbolMention)
	add := func(symbol, matched string, conf float64, method models.MatchMethod) {
		if conf < e.minConfidence {
			return
		}
		if cur, ok := best[symbol]; ok && cur.MatchConfidence >= conf {
			return
		}
		best[symbol] = models.SymbolMention{
			Symbol:          symbol,
			SourceArticleID: a.ID,
			MatchConfidence: conf,
			MatchedText:     matched,
			Method:          method,
		}
	}

	for _, m := range cashtagRe.FindAllStringSubmatch(text, -1) {
		sym := m[1]
		if excludedWords[sym] {
			continue
		}
		conf := confCashtag
		if strings.Contains(a.Title, m[0]) {
			conf = confCashtagTitle
		}
		add(sym, m[0], conf, models.MatchCashtag)
	}

	tickerTier := func(re *regexp.Regexp, method models.MatchMethod) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			sym := m[1]
			if excludedWords[sym] {
				continue
			}
			add(sym, m[0], tickerConfidence(a.Title, text, m[0], sym), method)
		}
	}
	tickerTier(keywordRe, models.MatchTickerKeyword)
	tickerTier(exchangeRe, models.MatchTickerParen)
	tickerTier(parenRe, models.MatchTickerParen)

	stockContext := stockCtxRe.MatchString(text)
	for _, c := range e.companies {
		if !c.re.MatchString(text) {
			continue
		}
		if c.Ambiguous && !stockContext && !mentionsTicker(text, c.Symbol) {
			continue
		}
		conf := confCompany
		if c.re.MatchString(a.Title) {
			conf = confCompanyTitle
		}
		add(c.Symbol, c.Name, conf, models.MatchCompanyName)
	}

	out := make([]models.SymbolMention, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchConfidence != out[j].MatchConfidence {
			return out[i].MatchConfidence > out[j].MatchConfidence
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func tickerConfidence(title, text, matched, symbol string) float64 {
	switch {
	case strings.Contains(title, matched):
		return confTickerTitle
	case countWord(text, symbol) > tickerRepeatCount:
		return confTickerRepeat
	default:
		return confTicker
	}
}

// countWord counts whole-word, case-sensitive occurrences of w in text.
func countWord(text, w string) int {
	n := 0
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.')
	}) {
		if strings.TrimSuffix(f, ".") == w {
			n++
		}
	}
	return n
}

func mentionsTicker(text, symbol string) bool {
	return countWord(text, symbol) > 0
}

// Aggregate merges mentions across articles by symbol, keeping the highest
// confidence and every contributing article id.
func Aggregate(mentions []models.SymbolMention) map[string][]models.SymbolMention {
	out := make(map[string][]models.SymbolMention)
	for _, m := range mentions {
		out[m.Symbol] = append(out[m.Symbol], m)
	}
	for sym := range out {
		list := out[sym]
		sort.SliceStable(list, func(i, j int) bool { return list[i].MatchConfidence > list[j].MatchConfidence })
	}
	return out
}
