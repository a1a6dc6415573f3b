package usecase

import (
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
)

// placeholderSignals fills a run whose news and market feeds are both down so
// that downstream digests never get an empty payload. They are never recorded.
func placeholderSignals(watchlist []string, n int, now time.Time) []models.Signal {
	if n > len(watchlist) {
		n = len(watchlist)
	}
	out := make([]models.Signal, 0, n)
	for _, sym := range watchlist[:n] {
		out = append(out, models.Signal{
			Symbol:      sym,
			Direction:   models.DirectionNeutral,
			Category:    models.CategoryMarketContext,
			Priority:    models.PriorityLow,
			Title:       fmt.Sprintf("%s: Market data temporarily unavailable", sym),
			Summary:     fmt.Sprintf("%s - live news and price feeds are down. This is not a trade idea.", sym),
			Rationale:   "**WHY THIS MATTERS**:\n\nData providers were unreachable during this run. No scoring was performed.",
			Placeholder: true,
			Metadata:    map[string]interface{}{"placeholder": true},
			GeneratedAt: now,
		})
	}
	return out
}
