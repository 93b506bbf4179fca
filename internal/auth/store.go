package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Storage keys, matching the web client's localStorage layout.
const (
	tokenKey = "auth_token"
	userKey  = "auth_user"
)

// User is the authenticated user record returned by the backend
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// Store persists the session token and user record in a state directory,
// one file per key. A zero-value Store (empty directory) is a no-op: every
// read returns the zero value and every write is silently dropped.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a session store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Token returns the persisted bearer token, or "" when absent
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(s.dir, tokenKey))
	if err != nil {
		return ""
	}
	return string(data)
}

// SetToken persists the bearer token
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(tokenKey, []byte(token))
}

// RemoveToken deletes the persisted token
func (s *Store) RemoveToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(tokenKey)
}

// User returns the persisted user record, or nil when absent or corrupted
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, userKey))
	if err != nil {
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil
	}
	return &u
}

// SetUser persists the user record
func (s *Store) SetUser(u *User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(userKey, data)
}

// RemoveUser deletes the persisted user record
func (s *Store) RemoveUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(userKey)
}

// IsAuthenticated reports whether a token is present
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Logout clears both token and user
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(tokenKey)
	s.remove(userKey)
}

// TokenExpired reports whether the stored token carries an exp claim in the
// past. The signature is not verified; only the server can do that. A token
// without an exp claim, or an unparseable one, is reported as not expired
// and left for the server to reject.
func (s *Store) TokenExpired() bool {
	raw := s.Token()
	if raw == "" {
		return false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// write stores a value under key (must be called with lock held)
func (s *Store) write(key string, data []byte) error {
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Write to temp file, then atomic rename
	path := filepath.Join(s.dir, key)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", key, err)
	}
	return nil
}

// remove deletes a key, ignoring missing files (must be called with lock held)
func (s *Store) remove(key string) {
	if s.dir == "" {
		return
	}
	os.Remove(filepath.Join(s.dir, key))
}
