package news

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	xhttp "SignalForge/pkg/http"
	"SignalForge/pkg/util"

	"github.com/mmcdole/gofeed"
)

const excerptLength = 500

// RSSSource reads one RSS or Atom feed.
type RSSSource struct {
	name   string
	url    string
	limit  int
	client *xhttp.Client
	now    func() time.Time
}

func NewRSSSource(name, url string, limit int, client *xhttp.Client) *RSSSource {
	return &RSSSource{name: name, url: url, limit: limit, client: client, now: time.Now}
}

func (r *RSSSource) Name() string { return r.name }

func (r *RSSSource) Fetch(ctx context.Context) ([]models.Article, error) {
	var raw []byte
	if err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: r.url}, &raw); err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	now := r.now().UTC()
	out := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if r.limit > 0 && len(out) >= r.limit {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		published := now
		switch {
		case item.PublishedParsed != nil:
			published = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			published = item.UpdatedParsed.UTC()
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		out = append(out, models.Article{
			ID:          models.ArticleID(item.Link),
			Title:       CleanText(item.Title),
			BodyExcerpt: util.Truncate(CleanText(summary), excerptLength, "..."),
			Source:      r.name,
			URL:         item.Link,
			PublishedAt: published,
			FetchedAt:   now,
		})
	}
	return out, nil
}
