package sentiment

import (
	"context"
	"strings"
	"unicode"

	"SignalForge/internal/domain/models"
	domainsvc "SignalForge/internal/domain/service"
)

// LexiconModel is a word-list classifier over headline vocabulary, based on
// the Loughran-McDonald finance dictionaries. It needs no external service.
type LexiconModel struct {
	positive map[string]bool
	negative map[string]bool
	negators map[string]bool
}

func NewLexiconModel() *LexiconModel {
	return &LexiconModel{
		positive: wordSet(positiveWords),
		negative: wordSet(negativeWords),
		negators: wordSet([]string{"not", "no", "never", "without", "fails", "failed"}),
	}
}

// LexiconLoader returns a loader for the lexicon model.
func LexiconLoader() domainsvc.ModelLoader {
	return func(context.Context) (domainsvc.SentimentModel, error) {
		return NewLexiconModel(), nil
	}
}

func (m *LexiconModel) Predict(ctx context.Context, texts []string) ([]models.Probabilities, error) {
	out := make([]models.Probabilities, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.classify(t)
	}
	return out, nil
}

func (m *LexiconModel) classify(text string) models.Probabilities {
	var pos, neg float64
	negate := false
	for _, w := range tokenize(text) {
		if m.negators[w] {
			negate = true
			continue
		}
		switch {
		case m.positive[w]:
			if negate {
				neg++
			} else {
				pos++
			}
		case m.negative[w]:
			if negate {
				pos++
			} else {
				neg++
			}
		}
		negate = false
	}
	hits := pos + neg
	if hits == 0 {
		return models.Probabilities{Negative: 0.1, Neutral: 0.8, Positive: 0.1}
	}
	// more polar words, more certainty; one word alone never clears 0.5
	strength := hits / (hits + 1)
	return models.Probabilities{
		Negative: strength * neg / hits,
		Neutral:  1 - strength,
		Positive: strength * pos / hits,
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
	})
}

func wordSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var positiveWords = []string{
	"beat", "beats", "beating", "surge", "surges", "surged", "soar", "soars", "soared",
	"rally", "rallies", "rallied", "jump", "jumps", "jumped", "climb", "climbs", "gain",
	"gains", "gained", "upgrade", "upgrades", "upgraded", "outperform", "outperforms",
	"record", "raise", "raises", "raised", "boost", "boosts", "strong", "stronger",
	"strength", "robust", "growth", "grew", "profit", "profitable", "bullish", "optimistic",
	"upbeat", "exceeds", "exceeded", "tops", "topped", "breakthrough", "approval", "approved",
	"wins", "win", "expands", "expansion", "partnership", "buyback", "dividend", "rebound",
	"rebounds", "recovers", "recovery", "improve", "improved", "improves", "success",
	"successful", "positive", "favorable", "accelerates", "momentum", "higher", "all-time",
}

var negativeWords = []string{
	"miss", "misses", "missed", "plunge", "plunges", "plunged", "slump", "slumps", "tumble",
	"tumbles", "tumbled", "sink", "sinks", "sank", "drop", "drops", "dropped", "fall", "falls",
	"fell", "decline", "declines", "declined", "downgrade", "downgrades", "downgraded",
	"underperform", "cut", "cuts", "slash", "slashes", "weak", "weaker", "weakness", "loss",
	"losses", "lawsuit", "sued", "investigation", "fraud", "recall", "recalls",
	"layoffs", "layoff", "bankruptcy", "bankrupt", "default", "bearish", "pessimistic",
	"warning", "warns", "warned", "concern", "concerns", "risk", "crash", "crashes", "selloff",
	"sell-off", "halt", "halted", "delay", "delays", "delayed", "disappointing", "disappoints",
	"negative", "adverse", "slowdown", "lower", "fine", "fined", "penalty", "resigns",
}
