package news

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"

	"SignalForge/internal/domain/models"
	xhttp "SignalForge/pkg/http"
	"SignalForge/pkg/util"

	readability "github.com/go-shiori/go-readability"
)

// minExcerpt is the excerpt length below which an article is worth enriching.
const minExcerpt = 100

// Enricher fills thin excerpts with the readable text of the article page.
type Enricher struct {
	client      *xhttp.Client
	maxArticles int
	maxLength   int
	workers     int
}

func NewEnricher(client *xhttp.Client, maxArticles, maxLength, workers int) *Enricher {
	if workers <= 0 {
		workers = 4
	}
	return &Enricher{client: client, maxArticles: maxArticles, maxLength: maxLength, workers: workers}
}

// Enrich updates excerpts in place. Failures leave the article unchanged.
func (e *Enricher) Enrich(ctx context.Context, articles []models.Article) int {
	idx := make(chan int)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated int
	)
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				text, err := e.extract(ctx, articles[i].URL)
				if err != nil || text == "" {
					continue
				}
				articles[i].BodyExcerpt = util.Truncate(CleanText(text), e.maxLength, "...")
				mu.Lock()
				updated++
				mu.Unlock()
			}
		}()
	}
	queued := 0
	for i := range articles {
		if queued >= e.maxArticles {
			break
		}
		if len(articles[i].BodyExcerpt) >= minExcerpt {
			continue
		}
		select {
		case idx <- i:
			queued++
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(idx)
	wg.Wait()
	return updated
}

func (e *Enricher) extract(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	var raw []byte
	if err := e.client.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: pageURL}, &raw); err != nil {
		return "", err
	}
	article, err := readability.FromReader(bytes.NewReader(raw), u)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", pageURL, err)
	}
	return article.TextContent, nil
}
