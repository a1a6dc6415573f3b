package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
)

func TestHTTPLoaderAndPredict(t *testing.T) {
	var batches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/v1/sentiment/batch":
			batches++
			var req batchRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			resp := batchResponse{Model: "finbert"}
			for range req.Texts {
				resp.Results = append(resp.Results, models.Probabilities{Negative: 0.1, Neutral: 0.2, Positive: 0.7})
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	model, err := HTTPLoader(srv.URL+"/", time.Second, 1)(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	probs, err := model.Predict(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(probs) != 2 || probs[1].Positive != 0.7 || batches != 1 {
		t.Fatalf("unexpected response %+v (batches=%d)", probs, batches)
	}
}

func TestHTTPLoaderUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	if _, err := HTTPLoader(srv.URL, time.Second, 1)(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
}
