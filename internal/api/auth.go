package api

import (
	"context"
	"fmt"
	"net/http"

	"iupchat/internal/auth"
)

// AuthResponse is the login/register payload: a bearer token plus the
// authenticated user record
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        auth.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type roleUpdate struct {
	Role string `json:"role"`
}

// Login authenticates with email/password and persists the session
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if err := c.persistSession(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and persists the session
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*AuthResponse, error) {
	var resp AuthResponse
	req := registerRequest{Email: email, Password: password, DisplayName: displayName}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp); err != nil {
		return nil, err
	}
	if err := c.persistSession(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) persistSession(resp *AuthResponse) error {
	if err := c.store.SetToken(resp.AccessToken); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	if err := c.store.SetUser(&resp.User); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// Me fetches the authenticated user record
func (c *Client) Me(ctx context.Context) (*auth.User, error) {
	var user auth.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users (admin only)
func (c *Client) ListUsers(ctx context.Context) ([]auth.User, error) {
	var users []auth.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserRole changes a user's role (admin only)
func (c *Client) UpdateUserRole(ctx context.Context, userID, role string) error {
	path := fmt.Sprintf("/api/v1/auth/users/%s/role", userID)
	return c.doJSON(ctx, http.MethodPut, path, roleUpdate{Role: role}, nil)
}
