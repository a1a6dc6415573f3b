package news

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	xhttp "SignalForge/pkg/http"
	"SignalForge/pkg/util"
)

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewsAPISource reads business top headlines from newsapi.org.
type NewsAPISource struct {
	baseURL  string
	apiKey   string
	category string
	country  string
	pageSize int
	client   *xhttp.Client
	now      func() time.Time
}

func NewNewsAPISource(baseURL, apiKey, category, country string, pageSize int, client *xhttp.Client) *NewsAPISource {
	return &NewsAPISource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		category: category,
		country:  country,
		pageSize: pageSize,
		client:   client,
		now:      time.Now,
	}
}

func (n *NewsAPISource) Name() string { return "newsapi" }

func (n *NewsAPISource) Fetch(ctx context.Context) ([]models.Article, error) {
	var resp newsAPIResponse
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     n.baseURL + "/top-headlines",
		Headers: map[string]string{"X-Api-Key": n.apiKey},
		QueryParams: map[string][]string{
			"category": {n.category},
			"country":  {n.country},
			"pageSize": {strconv.Itoa(n.pageSize)},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi %s: %s", resp.Code, resp.Message)
	}
	now := n.now().UTC()
	out := make([]models.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == "" || a.URL == "" || a.Title == "[Removed]" {
			continue
		}
		src := a.Source.Name
		if src == "" {
			src = n.Name()
		}
		out = append(out, models.Article{
			ID:          models.ArticleID(a.URL),
			Title:       CleanText(a.Title),
			BodyExcerpt: util.Truncate(CleanText(a.Description), excerptLength, "..."),
			Source:      src,
			URL:         a.URL,
			PublishedAt: util.ParseTimeDefault(a.PublishedAt, now).UTC(),
			FetchedAt:   now,
		})
	}
	return out, nil
}
