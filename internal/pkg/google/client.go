// Package google fetches the profile behind a Google OAuth access token.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultTimeout     = 10 * time.Second
)

// ErrInvalidToken is returned when Google rejects the access token.
var ErrInvalidToken = errors.New("google access token rejected")

// UserInfo is the subset of the userinfo response the API uses.
type UserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Client calls the Google userinfo endpoint.
type Client struct {
	userInfoURL string
	http        *http.Client
}

// NewClient creates a new userinfo client.
func NewClient(userInfoURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if strings.TrimSpace(userInfoURL) == "" {
		userInfoURL = DefaultUserInfoURL
	}

	return &Client{
		userInfoURL: userInfoURL,
		http:        &http.Client{Timeout: timeout},
	}
}

// UserInfo resolves the profile for accessToken.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request error: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeoutError(ctx, err) {
			return nil, fmt.Errorf("google userinfo timeout: %w", err)
		}
		return nil, fmt.Errorf("google userinfo request error: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("google userinfo http error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("google userinfo decode error: %w", err)
	}
	if info.Email == "" {
		return nil, ErrInvalidToken
	}
	return &info, nil
}

func isTimeoutError(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
