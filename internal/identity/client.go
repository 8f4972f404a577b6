package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Client talks to the Supabase-compatible auth API. Anonymous-key calls
// serve signup/login; the service key unlocks the admin user lookup used by
// the webhook identity fallback.
type Client struct {
	BaseURL    string
	AnonKey    string
	ServiceKey string
	HTTP       *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		BaseURL:    os.Getenv("SUPABASE_URL"),
		AnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		ServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) postJSON(ctx context.Context, path, apikey string, payload interface{}) ([]byte, int, error) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("apikey", apikey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBytes, _ := io.ReadAll(resp.Body)
	return respBytes, resp.StatusCode, nil
}

// Signup registers a user with the auth provider and returns the raw
// response body and status.
func (c *Client) Signup(ctx context.Context, email, password string) ([]byte, int, error) {
	return c.postJSON(ctx, "/auth/v1/signup", c.AnonKey, map[string]string{
		"email":    email,
		"password": password,
	})
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) ([]byte, int, error) {
	return c.postJSON(ctx, "/auth/v1/token?grant_type=password", c.AnonKey, map[string]string{
		"email":    email,
		"password": password,
	})
}

// FindUserIDByEmail asks the auth admin API for the user behind an e-mail.
// Returns "" when no account matches. The admin endpoint has returned both a
// wrapped and a bare users array across versions; both shapes are handled.
func (c *Client) FindUserIDByEmail(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/auth/v1/admin/users?email=%s", c.BaseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("admin user lookup failed: status %d", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var wrapped struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	if err := json.Unmarshal(respBytes, &wrapped); err == nil && len(wrapped.Users) > 0 {
		return wrapped.Users[0].ID, nil
	}

	var bare []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBytes, &bare); err == nil && len(bare) > 0 {
		return bare[0].ID, nil
	}

	return "", nil
}
