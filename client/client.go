// Package client is a typed Go consumer of the task tracker API. It replaces
// ambient token storage with an explicit Session created on login and cleared
// on logout or expiry detection.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tasktrack/internal/model"
)

// ErrSessionExpired is returned once a session's token is rejected or the
// session has been logged out. Callers recover by logging in again.
var ErrSessionExpired = errors.New("session expired")

// User is the public identity shape returned by the API.
type User struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	Role       model.Role `json:"role"`
	EmployeeID *uint      `json:"employee_id"`
}

// APIError is a non-2xx response decoded from the API's error envelope.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to the task tracker API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RegisterParams describe a new user account.
type RegisterParams struct {
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	Role       model.Role `json:"role,omitempty"`
	EmployeeID *uint      `json:"employee_id,omitempty"`
}

type registerResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// Register creates a user account. Registration does not start a session.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*User, error) {
	var resp registerResponse
	if err := c.do(ctx, "", http.MethodPost, "/api/auth/register", params, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates and returns a live Session holding the token.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var resp loginResponse
	err := c.do(ctx, "", http.MethodPost, "/api/auth/login", loginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &Session{
		client: c,
		token:  resp.Token,
		user:   resp.User,
	}, nil
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Message = envelope.Error
		apiErr.Code = envelope.Code
	}
	return apiErr
}
