package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"SignalForge/internal/domain/models"
	xhttp "SignalForge/pkg/http"
)

// flexNumber accepts both JSON numbers and numeric strings.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", b, err)
	}
	*n = flexNumber(v)
	return nil
}

type apeWisdomResponse struct {
	Results []struct {
		Ticker         string     `json:"ticker"`
		Name           string     `json:"name"`
		Rank           flexNumber `json:"rank"`
		Mentions       flexNumber `json:"mentions"`
		Mentions24hAgo flexNumber `json:"mentions_24h_ago"`
		Sentiment      flexNumber `json:"sentiment"`
	} `json:"results"`
}

// ApeWisdom reads mention counts aggregated across several Reddit communities.
type ApeWisdom struct {
	baseURL string
	filter  string
	client  *xhttp.Client
}

func NewApeWisdom(baseURL, filter string, client *xhttp.Client) *ApeWisdom {
	return &ApeWisdom{baseURL: strings.TrimRight(baseURL, "/"), filter: filter, client: client}
}

func (a *ApeWisdom) Name() string { return "apewisdom" }

func (a *ApeWisdom) Fetch(ctx context.Context, limit int) ([]models.SocialMention, error) {
	var resp apeWisdomResponse
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/filter/%s", a.baseURL, a.filter),
	}, &resp)
	if err != nil {
		return nil, err
	}
	out := make([]models.SocialMention, 0, len(resp.Results))
	for i, it := range resp.Results {
		if len(out) >= limit {
			break
		}
		sym := strings.ToUpper(strings.TrimSpace(it.Ticker))
		if !validTicker(sym) {
			continue
		}
		m, m24 := int(it.Mentions), int(it.Mentions24hAgo)
		out = append(out, models.SocialMention{
			Symbol:         sym,
			Rank:           i + 1,
			Mentions:       m,
			Mentions24hAgo: m24,
			MomentumPct:    models.MomentumPct(m, m24),
			SentimentScore: float64(it.Sentiment),
			Source:         "reddit_multi",
		})
	}
	return out, nil
}

func validTicker(s string) bool {
	if s == "" || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && r != '.' {
			return false
		}
	}
	return true
}

// decodeLenient decodes b into v, reporting a provider-shaped error.
func decodeLenient(b []byte, v interface{}) error {
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
