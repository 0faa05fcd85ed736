package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

const DefaultUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Client exchanges a bearer token for the user's profile at the identity
// provider's userinfo endpoint.
type Client struct {
	userinfoURL string
	httpClient  *http.Client
	logger      *logrus.Logger
}

func NewClient(userinfoURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if userinfoURL == "" {
		userinfoURL = DefaultUserinfoURL
	}
	return &Client{
		userinfoURL: userinfoURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) ResolveProfile(ctx context.Context, token string) (*models.User, error) {
	c.logger.Info("Fetching user profile from identity provider")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("identity provider returned error status: %d", resp.StatusCode)
	}

	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"sub":            user.Sub,
		"email_verified": user.EmailVerified,
	}).Info("Retrieved user profile from identity provider")

	return &user, nil
}
