package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	domainsvc "SignalForge/internal/domain/service"
	xhttp "SignalForge/pkg/http"
)

type batchRequest struct {
	Texts []string `json:"texts"`
}

type batchResponse struct {
	Results []models.Probabilities `json:"results"`
	Model   string                 `json:"model,omitempty"`
}

// HTTPModel calls a FinBERT inference service over JSON.
type HTTPModel struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
}

func NewHTTPModel(baseURL string, timeout time.Duration, attempts int) *HTTPModel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPModel{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: attempts,
	}
}

func (m *HTTPModel) Predict(ctx context.Context, texts []string) ([]models.Probabilities, error) {
	var resp batchResponse
	err := m.client.SendAndParseWithRetry(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     m.baseURL + "/v1/sentiment/batch",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    batchRequest{Texts: texts},
	}, &resp, m.attempts)
	if err != nil {
		return nil, fmt.Errorf("post /v1/sentiment/batch: %w", err)
	}
	return resp.Results, nil
}

// HTTPLoader checks the service once; the model is considered loaded when the
// service reports healthy.
func HTTPLoader(baseURL string, timeout time.Duration, attempts int) domainsvc.ModelLoader {
	return func(ctx context.Context) (domainsvc.SentimentModel, error) {
		m := NewHTTPModel(baseURL, timeout, attempts)
		var health xhttp.HealthStatus
		err := m.client.SendAndParseWithRetry(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    m.baseURL + "/healthz",
		}, &health, attempts)
		if err != nil {
			return nil, fmt.Errorf("sentiment service health: %w", err)
		}
		if health.Status != "" && health.Status != "ok" && health.Status != "healthy" {
			return nil, fmt.Errorf("sentiment service not ready: %s", health.Status)
		}
		return m, nil
	}
}
