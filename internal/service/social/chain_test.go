package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	xhttp "SignalForge/pkg/http"
)

type stubSource struct {
	name  string
	out   []models.SocialMention
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, int) ([]models.SocialMention, error) {
	s.calls++
	return s.out, s.err
}

func TestChainFallsBackInOrder(t *testing.T) {
	primary := &stubSource{name: "primary", err: errors.New("503")}
	empty := &stubSource{name: "empty", out: []models.SocialMention{{Symbol: "BTC"}}}
	secondary := &stubSource{name: "secondary", out: []models.SocialMention{{Symbol: "GME"}, {Symbol: "AMC"}}}
	never := &stubSource{name: "never"}

	c := NewChain([]Source{primary, empty, secondary, never}, []string{"btc"}, nil, 0)
	got, err := c.GetTrending(context.Background(), 1)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "GME" {
		t.Fatalf("unexpected result %+v", got)
	}
	if primary.calls != 1 || empty.calls != 1 || never.calls != 0 {
		t.Fatalf("unexpected call pattern: %d %d %d", primary.calls, empty.calls, never.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	c := NewChain([]Source{&stubSource{name: "a", err: errors.New("down")}, &stubSource{name: "b"}}, nil, nil, 0)
	_, err := c.GetTrending(context.Background(), 10)
	if !errors.Is(err, drepo.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
}

func TestApeWisdomParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1.0/filter/all-stocks" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"count":3,"results":[
			{"rank":1,"ticker":"TSLA","name":"Tesla","mentions":"600","mentions_24h_ago":272,"upvotes":900},
			{"rank":2,"ticker":"TOOLONG","mentions":50,"mentions_24h_ago":10},
			{"rank":3,"ticker":"pltr","mentions":120,"mentions_24h_ago":0}]}`)
	}))
	defer srv.Close()

	a := NewApeWisdom(srv.URL+"/api/v1.0", "all-stocks", xhttp.NewClient(xhttp.WithTimeout(time.Second)))
	got, err := a.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected invalid ticker skipped, got %+v", got)
	}
	if got[0].Symbol != "TSLA" || got[0].Mentions != 600 || got[0].HypeLevel() != models.HypeExtreme {
		t.Fatalf("unexpected TSLA mention %+v (%s)", got[0], got[0].HypeLevel())
	}
	if got[1].Symbol != "PLTR" || got[1].MomentumPct != 100 {
		t.Fatalf("unexpected PLTR mention %+v", got[1])
	}
}

func TestTradestieEstimatesPriorMentions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"no_of_comments":250,"sentiment":"Bearish","sentiment_score":0.12,"ticker":"AMC"}]`)
	}))
	defer srv.Close()

	got, err := NewTradestie(srv.URL, xhttp.NewClient()).Fetch(context.Background(), 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].Mentions24hAgo != 200 || got[0].MomentumPct != 25 {
		t.Fatalf("unexpected estimate %+v", got)
	}
	if got[0].SentimentScore != -0.12 {
		t.Fatalf("bearish label should sign the score: %v", got[0].SentimentScore)
	}
}

func TestHypeLevels(t *testing.T) {
	cases := []struct {
		mentions int
		momentum float64
		want     models.HypeLevel
	}{
		{600, 120, models.HypeExtreme},
		{500, 120, models.HypeHigh},
		{300, 60, models.HypeHigh},
		{200, 60, models.HypeModerate},
		{10, 21, models.HypeModerate},
		{1000, 20, models.HypeStable},
	}
	for _, c := range cases {
		m := models.SocialMention{Mentions: c.mentions, MomentumPct: c.momentum}
		if got := m.HypeLevel(); got != c.want {
			t.Fatalf("mentions=%d momentum=%v: got %s want %s", c.mentions, c.momentum, got, c.want)
		}
	}
}
