package news

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/util"

	"github.com/gocolly/colly/v2"
)

// Selectors locate headlines on a listing page.
type Selectors struct {
	Item    string
	Title   string
	Summary string
	Time    string
}

// ScrapeSource reads headlines from an HTML listing page.
type ScrapeSource struct {
	name           string
	url            string
	allowedDomains []string
	selectors      Selectors
	limit          int
	timeout        time.Duration
	userAgent      string
	now            func() time.Time
}

func NewScrapeSource(name, url string, allowedDomains []string, sel Selectors, limit int, timeout time.Duration, userAgent string) *ScrapeSource {
	return &ScrapeSource{
		name:           name,
		url:            url,
		allowedDomains: allowedDomains,
		selectors:      sel,
		limit:          limit,
		timeout:        timeout,
		userAgent:      userAgent,
		now:            time.Now,
	}
}

func (s *ScrapeSource) Name() string { return s.name }

func (s *ScrapeSource) Fetch(ctx context.Context) ([]models.Article, error) {
	c := colly.NewCollector(
		colly.AllowedDomains(s.allowedDomains...),
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
	)
	if s.timeout > 0 {
		c.SetRequestTimeout(s.timeout)
	}
	if s.userAgent != "" {
		c.UserAgent = s.userAgent
	}

	now := s.now().UTC()
	var (
		mu       sync.Mutex
		out      []models.Article
		visitErr error
	)
	c.OnHTML(s.selectors.Item, func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if s.limit > 0 && len(out) >= s.limit {
			return
		}
		title := strings.TrimSpace(e.ChildText(s.selectors.Title))
		link := e.Request.AbsoluteURL(e.ChildAttr(s.selectors.Title, "href"))
		if title == "" || link == "" {
			return
		}
		published := now
		if s.selectors.Time != "" {
			if t, ok := util.ParseTime(strings.TrimSpace(e.ChildAttr(s.selectors.Time, "datetime"))); ok {
				published = t.UTC()
			}
		}
		var summary string
		if s.selectors.Summary != "" {
			summary = CleanText(e.ChildText(s.selectors.Summary))
		}
		out = append(out, models.Article{
			ID:          models.ArticleID(link),
			Title:       CleanText(title),
			BodyExcerpt: util.Truncate(summary, excerptLength, "..."),
			Source:      s.name,
			URL:         link,
			PublishedAt: published,
			FetchedAt:   now,
		})
	})
	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		visitErr = fmt.Errorf("scrape %s (status %d): %w", r.Request.URL, r.StatusCode, err)
	})

	if err := c.Visit(s.url); err != nil {
		return nil, fmt.Errorf("visit %s: %w", s.url, err)
	}
	c.Wait()
	if visitErr != nil && len(out) == 0 {
		return nil, visitErr
	}
	return out, nil
}
