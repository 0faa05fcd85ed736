package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

// HTTPLoader fetches the whole catalog from a catalog service.
type HTTPLoader struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewHTTPLoader(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPLoader {
	return &HTTPLoader{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (l *HTTPLoader) LoadOrders(ctx context.Context) ([]models.Order, error) {
	l.logger.WithField("url", l.baseURL).Info("Fetching orders from catalog service")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/orders", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to catalog service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned error status: %d", resp.StatusCode)
	}

	var response struct {
		Success bool           `json:"success"`
		Orders  []models.Order `json:"orders"`
		Count   int            `json:"count"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode catalog service response: %w", err)
	}

	if !response.Success {
		return nil, fmt.Errorf("catalog service reported failure")
	}

	l.logger.WithField("count", response.Count).Info("Retrieved orders from catalog service")
	return response.Orders, nil
}
